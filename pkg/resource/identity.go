// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package resource defines the canonical identity and classification of
// cluster objects, plus the CLI-level operations that act on a single one.
package resource

import "fmt"

// Mode distinguishes read-only and editable sessions for the same object.
type Mode int

const (
	ModeNone Mode = iota
	ModeView
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeView:
		return "view"
	case ModeEdit:
		return "edit"
	default:
		return "none"
	}
}

// Identity is the canonical key for a cluster object. It is an immutable
// value with structural equality, usable as a map key wherever sessions,
// watches, or caches correlate a UI action back to one object. Identities
// differing only by Mode are distinct sessions.
type Identity struct {
	Kind      string
	Namespace string
	Name      string
	Mode      Mode
}

func (id Identity) String() string {
	s := id.Kind + "/" + id.Name
	if id.Namespace != "" {
		s += " in " + id.Namespace
	}
	if id.Mode != ModeNone {
		s = fmt.Sprintf("%s (%s)", s, id.Mode)
	}
	return s
}

// WithMode returns a copy of id with the given mode.
func (id Identity) WithMode(m Mode) Identity {
	id.Mode = m
	return id
}
