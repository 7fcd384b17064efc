// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"errors"
	"fmt"
)

// Kind classifies room errors.
type Kind int

const (
	// KindProvisioning: the transport rejected a role or channel
	// creation. The creation attempt is aborted.
	KindProvisioning Kind = iota + 1

	// KindResolution: a stored room's channel or role no longer
	// exists. The room is left out of the registry; its record is
	// kept for an operator to reconcile.
	KindResolution

	// KindDelivery: a transcript could not be built or mailed to one
	// recipient. Other recipients and teardown proceed.
	KindDelivery

	// KindTeardownResource: deleting a role or channel failed. The
	// resource may have leaked; teardown still completes.
	KindTeardownResource

	// KindPersistence: writing or deleting a stored record failed.
	// The in-memory registry stays authoritative.
	KindPersistence
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrProvisioning     = errors.New("provisioning failure")
	ErrResolution       = errors.New("resolution failure")
	ErrDelivery         = errors.New("delivery failure")
	ErrTeardownResource = errors.New("teardown resource failure")
	ErrPersistence      = errors.New("persistence failure")

	errUnknownKind = errors.New("unknown failure")
)

func (k Kind) sentinel() error {
	switch k {
	case KindProvisioning:
		return ErrProvisioning
	case KindResolution:
		return ErrResolution
	case KindDelivery:
		return ErrDelivery
	case KindTeardownResource:
		return ErrTeardownResource
	case KindPersistence:
		return ErrPersistence
	default:
		return errUnknownKind
	}
}

func (k Kind) String() string {
	return k.sentinel().Error()
}

// Error is a classified failure within one room operation. Use
// errors.Is with the sentinels, or errors.As to read the fields:
//
//	var roomErr *rooms.Error
//	if errors.As(err, &roomErr) && roomErr.Kind == rooms.KindResolution {
//	    ...
//	}
type Error struct {
	Kind Kind

	// Room is the room name, when known.
	Room string

	// Op names the failed step ("create role", "mail transcript").
	Op string

	// Member is set for per-recipient delivery failures.
	Member MemberID

	Err error
}

func (e *Error) Error() string {
	subject := e.Room
	if e.Member != "" {
		subject += " (" + string(e.Member) + ")"
	}
	if e.Err == nil {
		return fmt.Sprintf("rooms: %s: %s: %s", e.Kind, subject, e.Op)
	}
	return fmt.Sprintf("rooms: %s: %s: %s: %v", e.Kind, subject, e.Op, e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}
