// Copyright 2026 The Streakmate Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFunc(t *testing.T) {
	fake := Fake(time.Unix(1000, 0))

	fired := 0
	timer := fake.AfterFunc(2*time.Second, func() { fired++ })

	fake.Advance(time.Second)
	if fired != 0 {
		t.Fatalf("timer fired early: %d", fired)
	}
	fake.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("timer did not fire: %d", fired)
	}
	if timer.Stop() {
		t.Error("Stop returned true for an already-fired timer")
	}
}

func TestFakeAfterFuncReset(t *testing.T) {
	fake := Fake(time.Unix(1000, 0))

	fired := 0
	timer := fake.AfterFunc(2*time.Second, func() { fired++ })

	// Each reset pushes the deadline out, debounce-style.
	fake.Advance(time.Second)
	timer.Reset(2 * time.Second)
	fake.Advance(time.Second)
	timer.Reset(2 * time.Second)
	fake.Advance(time.Second)
	if fired != 0 {
		t.Fatalf("timer fired despite resets: %d", fired)
	}
	fake.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("timer did not fire after idle window: %d", fired)
	}
}

func TestFakeAfterFuncStop(t *testing.T) {
	fake := Fake(time.Unix(1000, 0))

	fired := 0
	timer := fake.AfterFunc(time.Second, func() { fired++ })
	if !timer.Stop() {
		t.Fatal("Stop returned false for an armed timer")
	}
	fake.Advance(2 * time.Second)
	if fired != 0 {
		t.Fatalf("stopped timer fired: %d", fired)
	}
}

func TestFakeAfterFuncResetAfterStop(t *testing.T) {
	fake := Fake(time.Unix(1000, 0))

	fired := 0
	timer := fake.AfterFunc(time.Second, func() { fired++ })

	// Stop then re-arm without an intervening Advance: the timer must
	// be registered exactly once.
	timer.Stop()
	if timer.Reset(time.Second) {
		t.Error("Reset returned true for a stopped timer")
	}
	if fake.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d after stop+reset, want 1", fake.PendingCount())
	}
	fake.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("timer fired %d times, want exactly 1", fired)
	}
}

func TestFakeTicker(t *testing.T) {
	fake := Fake(time.Unix(1000, 0))
	ticker := fake.NewTicker(time.Second)
	defer ticker.Stop()

	fake.Advance(time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("no tick after one interval")
	}

	// Two intervals with a full buffer: one tick is dropped.
	fake.Advance(2 * time.Second)
	select {
	case <-ticker.C:
	default:
		t.Fatal("no tick after two intervals")
	}
	select {
	case <-ticker.C:
		t.Fatal("overflow tick was not dropped")
	default:
	}
}

func TestFakeNow(t *testing.T) {
	start := time.Unix(1000, 0)
	fake := Fake(start)
	fake.Advance(90 * time.Second)
	if got := fake.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("Now() = %v, want %v", got, start.Add(90*time.Second))
	}
}

func TestFakePendingCount(t *testing.T) {
	fake := Fake(time.Unix(1000, 0))
	if fake.PendingCount() != 0 {
		t.Fatalf("fresh clock has %d waiters", fake.PendingCount())
	}
	timer := fake.AfterFunc(time.Second, func() {})
	if fake.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", fake.PendingCount())
	}
	timer.Stop()
	if fake.PendingCount() != 0 {
		t.Fatalf("PendingCount after stop = %d, want 0", fake.PendingCount())
	}
}
