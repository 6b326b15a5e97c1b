// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package session owns the mapping between live cluster resources and local
// editable YAML files: fetch → sanitize → write → open on open, parse →
// apply → verify on save, delete → deregister on close. At most one session
// exists per (identity, mode), and opening one mode closes the other.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/confighub/xp-console/internal/clierr"
	"github.com/confighub/xp-console/pkg/resource"
	"github.com/confighub/xp-console/pkg/runner"
)

// UI is the surface the session manager needs from its host: open and close
// documents, and show notifications. The CLI implements it with the user's
// editor and stdout.
type UI interface {
	OpenDocument(path string) error
	CloseDocument(path string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Config wires a Manager.
type Config struct {
	Kubectl string
	Logger  *zap.Logger
	UI      UI
	// OnApplied runs after a successful apply, typically a tree refresh.
	OnApplied func()
	// WriteFile and RemoveAll default to the os implementations; tests
	// inject failures here.
	WriteFile func(path string, data []byte) error
	RemoveAll func(path string) error
	MkdirTemp func() (string, error)
	// VerifyAfterApply re-fetches the object after a successful apply and
	// compares spec subtrees. Mismatch is a soft warning, not an error.
	VerifyAfterApply bool
}

// Manager brokers the view/edit lifecycle for cluster resources. It owns the
// identity↔path maps exclusively; no other component mutates them.
type Manager struct {
	run       runner.Runner
	client    *resource.Client
	kubectl   string
	logger    *zap.Logger
	ui        UI
	onApplied func()
	writeFile func(string, []byte) error
	removeAll func(string) error
	mkdirTemp func() (string, error)
	verify    bool

	mu         sync.Mutex
	byIdentity map[resource.Identity]string
	byPath     map[string]resource.Identity
	opening    map[resource.Identity]bool
}

// NewManager creates a session manager.
func NewManager(run runner.Runner, cfg Config) *Manager {
	if cfg.Kubectl == "" {
		cfg.Kubectl = "kubectl"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.OnApplied == nil {
		cfg.OnApplied = func() {}
	}
	if cfg.WriteFile == nil {
		cfg.WriteFile = func(path string, data []byte) error {
			return os.WriteFile(path, data, 0o600)
		}
	}
	if cfg.RemoveAll == nil {
		cfg.RemoveAll = os.RemoveAll
	}
	if cfg.MkdirTemp == nil {
		cfg.MkdirTemp = func() (string, error) {
			return os.MkdirTemp("", "xp-console-")
		}
	}
	if cfg.UI == nil {
		cfg.UI = noopUI{}
	}
	return &Manager{
		run:        run,
		client:     resource.NewClient(run, cfg.Kubectl, cfg.Logger),
		kubectl:    cfg.Kubectl,
		logger:     cfg.Logger,
		ui:         cfg.UI,
		onApplied:  cfg.OnApplied,
		writeFile:  cfg.WriteFile,
		removeAll:  cfg.RemoveAll,
		mkdirTemp:  cfg.MkdirTemp,
		verify:     cfg.VerifyAfterApply,
		byIdentity: make(map[resource.Identity]string),
		byPath:     make(map[string]resource.Identity),
		opening:    make(map[resource.Identity]bool),
	}
}

// PathFor returns the file backing an open session, if any.
func (m *Manager) PathFor(id resource.Identity) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byIdentity[id]
	return p, ok
}

// IdentityFor returns the identity tracked for a file path, if any.
func (m *Manager) IdentityFor(path string) (resource.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPath[path]
	return id, ok
}

// Open opens id for viewing or editing and returns the backing file path.
//
// A repeat open for an identity already mapped surfaces the existing file
// instead of re-fetching; a concurrent open while the first is mid-fetch is
// a no-op. Opening one mode closes an open session of the opposite mode for
// the same object first.
func (m *Manager) Open(ctx context.Context, id resource.Identity) (string, error) {
	if id.Mode == resource.ModeNone {
		return "", fmt.Errorf("open %s: a view or edit mode is required", id)
	}

	m.mu.Lock()
	if m.opening[id] {
		// Re-entrant open while the first is mid-fetch.
		m.mu.Unlock()
		return "", nil
	}
	if existing, ok := m.byIdentity[id]; ok {
		m.mu.Unlock()
		if err := m.ui.OpenDocument(existing); err == nil {
			return existing, nil
		}
		// Backing file externally deleted; discard and recreate.
		m.forget(existing)
		m.mu.Lock()
	}
	m.opening[id] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.opening, id)
		m.mu.Unlock()
	}()

	path, err := m.create(ctx, id)
	if err != nil {
		m.ui.Error(clierr.Pretty(err))
		return "", err
	}
	return path, nil
}

type noopUI struct{}

func (noopUI) OpenDocument(string) error { return nil }
func (noopUI) CloseDocument(string)      {}
func (noopUI) Info(string)               {}
func (noopUI) Warn(string)               {}
func (noopUI) Error(string)              {}

func (m *Manager) create(ctx context.Context, id resource.Identity) (string, error) {
	obj, err := m.client.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if id.Mode == resource.ModeEdit {
		obj = resource.Sanitize(obj)
	}

	data, err := sigsyaml.Marshal(obj.Object)
	if err != nil {
		return "", fmt.Errorf("serialize %s: %w", id, err)
	}

	banner := fmt.Sprintf("# VIEW MODE: read-only snapshot of %s\n", id)
	if id.Mode == resource.ModeEdit {
		banner = fmt.Sprintf("# EDIT MODE: saving applies changes to %s\n", id)
	}

	dir, err := m.mkdirTemp()
	if err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	path := filepath.Join(dir, sessionFileName(id))
	if err := m.writeFile(path, append([]byte(banner), data...)); err != nil {
		return "", fmt.Errorf("write session file: %w", err)
	}

	// Only one tab per object: close the opposite mode before opening.
	opposite := id.WithMode(resource.ModeView)
	if id.Mode == resource.ModeView {
		opposite = id.WithMode(resource.ModeEdit)
	}
	m.mu.Lock()
	oppositePath, hadOpposite := m.byIdentity[opposite]
	m.byIdentity[id] = path
	m.byPath[path] = id
	m.mu.Unlock()

	if hadOpposite {
		m.ui.CloseDocument(oppositePath)
		m.HandleClose(oppositePath)
	}

	if err := m.ui.OpenDocument(path); err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	return path, nil
}

// sessionFileName is "<kind>-<name>-<mode>.yaml".
func sessionFileName(id resource.Identity) string {
	return fmt.Sprintf("%s-%s-%s.yaml", strings.ToLower(id.Kind), id.Name, id.Mode)
}

// HandleSave applies the document at path if it belongs to an edit session.
// Triggered by the host's document-save event.
func (m *Manager) HandleSave(ctx context.Context, path string, text string) error {
	m.mu.Lock()
	id, ok := m.byPath[path]
	m.mu.Unlock()
	if !ok {
		return nil // not ours
	}
	if id.Mode != resource.ModeEdit {
		return nil
	}

	// Never apply invalid structured content. yaml.v3 gives positioned
	// syntax errors; the sigs round-trip yields JSON-typed values whose
	// spec subtree is comparable with a live fetch.
	var syntax yaml.Node
	if err := yaml.Unmarshal([]byte(text), &syntax); err != nil {
		perr := &clierr.ParseError{Err: err}
		m.ui.Error(clierr.Pretty(perr))
		return perr
	}
	var parsed map[string]interface{}
	if err := sigsyaml.Unmarshal([]byte(text), &parsed); err != nil {
		perr := &clierr.ParseError{Err: err}
		m.ui.Error(clierr.Pretty(perr))
		return perr
	}

	// The user's edit is authoritative over concurrent field managers.
	args := []string{"apply", "-f", "-", "--server-side", "--force-conflicts"}
	if _, err := m.run.Run(ctx, m.kubectl, args, text); err != nil {
		if perr, isProc := err.(*runner.ProcessError); isProc && clierr.IsPermissionDenied(perr.Stderr) {
			permErr := &clierr.PermissionError{Op: "apply", Stderr: perr.Stderr}
			m.ui.Error(clierr.Pretty(permErr))
			return permErr
		}
		m.ui.Error(clierr.Pretty(err))
		return fmt.Errorf("apply %s: %w", id, err)
	}

	if m.verify {
		m.verifySpec(ctx, id, parsed)
	}

	m.ui.Info(fmt.Sprintf("Applied %s", id))
	m.onApplied()
	return nil
}

// verifySpec re-fetches the live object and compares its spec subtree with
// the submitted one. The apply already reported success, so a mismatch is a
// soft consistency signal, not an error.
func (m *Manager) verifySpec(ctx context.Context, id resource.Identity, submitted map[string]interface{}) {
	live, err := m.client.Get(ctx, id)
	if err != nil {
		m.logger.Warn("post-apply verification fetch failed", zap.String("identity", id.String()), zap.Error(err))
		return
	}
	liveSpec, _, _ := unstructured.NestedMap(live.Object, "spec")
	wantSpec, _ := submitted["spec"].(map[string]interface{})
	if wantSpec != nil && !reflect.DeepEqual(liveSpec, wantSpec) {
		m.ui.Warn(fmt.Sprintf("Applied %s, but the live spec differs from your edit — you may not have sufficient permissions", id))
	}
}

// HandleClose cleans up after the host closes a tracked document. Deletion
// failures are logged, never surfaced; the map entries are removed
// unconditionally so a broken temp dir cannot wedge the session.
func (m *Manager) HandleClose(path string) {
	m.mu.Lock()
	_, tracked := m.byPath[path]
	m.mu.Unlock()
	if !tracked {
		return
	}
	m.forget(path)
}

func (m *Manager) forget(path string) {
	m.mu.Lock()
	id, ok := m.byPath[path]
	delete(m.byPath, path)
	if ok {
		delete(m.byIdentity, id)
	}
	m.mu.Unlock()

	if err := m.removeAll(filepath.Dir(path)); err != nil {
		m.logger.Warn("session cleanup failed", zap.String("path", path), zap.Error(err))
	}
}
