// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package diffwatch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"

	"github.com/confighub/xp-console/pkg/resource"
)

// Sink receives rendered diff lines for one watched resource.
type Sink interface {
	WriteLine(line string)
	Close()
}

// SinkFactory creates the output sink for a new subscription.
type SinkFactory func(id resource.Identity) (Sink, error)

type subscription struct {
	id      resource.Identity
	sink    Sink
	cancel  context.CancelFunc
	stopped bool
	prev    map[string]interface{}
}

// Engine maintains live field-level diff watches on individual resources.
// Each watched resource gets one API watch, its own sink, and a running
// previous-state snapshot that arriving events are diffed against.
type Engine struct {
	client dynamic.Interface
	logger *zap.Logger

	newSink SinkFactory

	mu   sync.Mutex
	subs map[resource.Identity]*subscription
}

func NewEngine(client dynamic.Interface, newSink SinkFactory, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:  client,
		logger:  logger,
		newSink: newSink,
		subs:    make(map[resource.Identity]*subscription),
	}
}

// Start begins watching one resource. A second Start for a resource that is
// already being watched is a no-op apart from a notice on the existing sink.
// The watch runs until Stop, independent of ctx, which only bounds the
// resolution step.
func (e *Engine) Start(ctx context.Context, id resource.Identity, apiVersion string) error {
	e.mu.Lock()
	if existing, ok := e.subs[id]; ok {
		existing.sink.WriteLine(fmt.Sprintf("# already watching %s/%s", id.Kind, id.Name))
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	target, err := ResolveWatchTarget(ctx, e.client, id.Kind, apiVersion)
	if err != nil {
		return err
	}

	sink, err := e.newSink(id)
	if err != nil {
		return fmt.Errorf("open diff sink: %w", err)
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	iface := e.client.Resource(target.GVR)
	var w watch.Interface
	opts := metav1.ListOptions{FieldSelector: "metadata.name=" + id.Name}
	if target.Namespaced {
		w, err = iface.Namespace(id.Namespace).Watch(watchCtx, opts)
	} else {
		w, err = iface.Watch(watchCtx, opts)
	}
	if err != nil {
		cancel()
		sink.Close()
		return fmt.Errorf("watch %s %s: %w", id.Kind, id.Name, err)
	}

	sub := &subscription{id: id, sink: sink, cancel: cancel}

	e.mu.Lock()
	if existing, ok := e.subs[id]; ok {
		// Lost the race to another Start for the same resource.
		e.mu.Unlock()
		cancel()
		w.Stop()
		sink.Close()
		existing.sink.WriteLine(fmt.Sprintf("# already watching %s/%s", id.Kind, id.Name))
		return nil
	}
	e.subs[id] = sub
	e.mu.Unlock()

	sink.WriteLine(fmt.Sprintf("# watching %s/%s for changes", id.Kind, id.Name))
	e.logger.Info("diff watch started",
		zap.String("kind", id.Kind),
		zap.String("name", id.Name),
		zap.String("resource", target.GVR.Resource))

	go e.pump(sub, w)
	return nil
}

func (e *Engine) pump(sub *subscription, w watch.Interface) {
	for ev := range w.ResultChan() {
		e.handleEvent(sub, ev)
	}
}

// handleEvent runs under the engine lock so that a concurrent Stop can
// guarantee no line reaches the sink after Stop returns.
func (e *Engine) handleEvent(sub *subscription, ev watch.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sub.stopped {
		return
	}

	if ev.Type == watch.Error {
		sub.sink.WriteLine(fmt.Sprintf("# watch error on %s/%s", sub.id.Kind, sub.id.Name))
		e.logger.Warn("diff watch error event",
			zap.String("kind", sub.id.Kind),
			zap.String("name", sub.id.Name))
		return
	}

	obj, ok := ev.Object.(interface{ UnstructuredContent() map[string]interface{} })
	if !ok {
		return
	}
	raw := obj.UnstructuredContent()
	rv := nestedRV(raw) // read before cleaning strips it
	cleaned := CleanForDiff(raw)

	var changes []Change
	switch ev.Type {
	case watch.Added:
		changes = Diff(map[string]interface{}{}, cleaned)
		sub.prev = cleaned
	case watch.Modified:
		changes = Diff(sub.prev, cleaned)
		sub.prev = cleaned
	case watch.Deleted:
		changes = Diff(sub.prev, map[string]interface{}{})
		sub.prev = nil
	default:
		return
	}

	for _, line := range Render(string(ev.Type), rv, changes) {
		sub.sink.WriteLine(line)
	}
}

// Stop ends the watch on one resource, writes a final notice, and closes
// the sink. Stopping a resource that is not being watched is a no-op. By
// the time Stop returns no further lines will reach the sink.
func (e *Engine) Stop(id resource.Identity) {
	e.mu.Lock()
	sub, ok := e.subs[id]
	if !ok {
		e.mu.Unlock()
		e.logger.Debug("nothing to stop",
			zap.String("kind", id.Kind),
			zap.String("name", id.Name))
		return
	}
	delete(e.subs, id)
	sub.stopped = true
	sub.sink.WriteLine(fmt.Sprintf("# stopped watching %s/%s", id.Kind, id.Name))
	sub.sink.Close()
	e.mu.Unlock()

	sub.cancel()
	e.logger.Info("diff watch stopped",
		zap.String("kind", id.Kind),
		zap.String("name", id.Name))
}

// StopAll tears down every active watch.
func (e *Engine) StopAll() {
	e.mu.Lock()
	ids := make([]resource.Identity, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	e.mu.Unlock()
	for _, id := range ids {
		e.Stop(id)
	}
}

// Watching reports whether a watch is active for the resource.
func (e *Engine) Watching(id resource.Identity) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.subs[id]
	return ok
}

func nestedRV(obj map[string]interface{}) string {
	meta, ok := obj["metadata"].(map[string]interface{})
	if !ok {
		return ""
	}
	rv, _ := meta["resourceVersion"].(string)
	return rv
}
