// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

type recordingTB struct {
	failure string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.failure = fmt.Sprintf(format, args...)
	panic(r)
}

func TestRequireReceiveValue(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second, "value"); got != 7 {
		t.Fatalf("RequireReceive = %d, want 7", got)
	}
}

func TestRequireReceiveTimeout(t *testing.T) {
	recorder := &recordingTB{}
	func() {
		defer func() { recover() }()
		RequireReceive(recorder, make(chan int), 10*time.Millisecond, "waiting for %s", "nothing")
	}()
	if !strings.Contains(recorder.failure, "waiting for nothing") {
		t.Fatalf("failure = %q, want formatted message", recorder.failure)
	}
}

func TestRequireClosed(t *testing.T) {
	ch := make(chan struct{})
	close(ch)
	RequireClosed(t, ch, time.Second)
}

func TestUniqueIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := UniqueID("room")
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
