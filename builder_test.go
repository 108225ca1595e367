// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell_test

import (
	"testing"
	"time"

	"code.hybscloud.com/lfcell"
)

func TestBuilderDefaultAllocator(t *testing.T) {
	c := lfcell.NewBuilder(counter{N: 5}).Build()
	defer c.Close()

	r := c.ReadOnly()
	defer r.Close()
	if got := r.Get().N; got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}

func TestBuilderWithMonitoredAllocator(t *testing.T) {
	alloc := lfcell.NewMonitoredAllocator[counter]()
	c := lfcell.NewBuilder(counter{N: 1}).WithAllocator(alloc).Build()

	if n := alloc.Outstanding(); n != 1 {
		t.Fatalf("Outstanding right after Build: got %d, want 1", n)
	}

	c.Close()
	if n := alloc.Outstanding(); n != 0 {
		t.Fatalf("Outstanding after Close: got %d, want 0", n)
	}
}

func TestWithAllocatorOption(t *testing.T) {
	alloc := lfcell.NewMonitoredAllocator[counter]()
	c := lfcell.NewCell(counter{N: 1}, lfcell.WithAllocator[counter](alloc))
	defer c.Close()

	if n := alloc.Outstanding(); n != 1 {
		t.Fatalf("Outstanding: got %d, want 1", n)
	}
}

// TestWithMaxSlotsCapsGrowth covers the registry's soft growth cap
// (spec.md §9's MAX_HAZARDS carry-forward): once the cap is hit, a scope
// that finds every slot occupied blocks until one is released instead of
// growing the registry further.
func TestWithMaxSlotsCapsGrowth(t *testing.T) {
	if lfcell.RaceEnabled {
		t.Skip("skip: concurrency test requires concurrent access")
	}

	// Cap of 2: the publication root (always USED) plus exactly one
	// slot available for readers/writers to recycle.
	c := lfcell.NewBuilder(counter{N: 0}).WithMaxSlots(2).Build()
	defer c.Close()

	r1 := c.ReadOnly()
	if s := c.Stats(); s.Slots != 2 {
		t.Fatalf("Slots after first acquire: got %d, want 2 (root + one grown slot)", s.Slots)
	}

	acquired := make(chan *lfcell.ReaderScope[counter], 1)
	go func() {
		acquired <- c.ReadOnly()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should have blocked: registry is at its cap with no free slot")
	case <-time.After(50 * time.Millisecond):
	}

	r1.Close()

	select {
	case r2 := <-acquired:
		r2.Close()
	case <-time.After(time.Second):
		t.Fatal("second acquire never unblocked after the slot it awaited was released")
	}

	if s := c.Stats(); s.Slots != 2 {
		t.Fatalf("Slots after cap reached: got %d, want 2 (growth stays disabled)", s.Slots)
	}
}
