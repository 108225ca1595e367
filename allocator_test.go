// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfcell_test

import (
	"bytes"
	"errors"
	"testing"

	"code.hybscloud.com/lfcell"
)

func TestMonitoredAllocatorTracksOutstanding(t *testing.T) {
	a := lfcell.NewMonitoredAllocator[counter]()

	p1 := a.Allocate(counter{N: 1})
	p2 := a.Allocate(counter{N: 2})
	if n := a.Outstanding(); n != 2 {
		t.Fatalf("Outstanding: got %d, want 2", n)
	}

	a.Free(p1)
	if n := a.Outstanding(); n != 1 {
		t.Fatalf("Outstanding after one Free: got %d, want 1", n)
	}

	a.Free(p2)
	if n := a.Outstanding(); n != 0 {
		t.Fatalf("Outstanding after both Free: got %d, want 0", n)
	}
	if err := a.CheckErrors(); err != nil {
		t.Fatalf("CheckErrors: got %v, want nil", err)
	}
}

func TestMonitoredAllocatorDoubleFree(t *testing.T) {
	a := lfcell.NewMonitoredAllocator[counter]()
	p := a.Allocate(counter{N: 1})

	a.Free(p)
	a.Free(p) // double free

	if n := a.DoubleFrees(); n != 1 {
		t.Fatalf("DoubleFrees: got %d, want 1", n)
	}
	if n := a.UnknownFrees(); n != 0 {
		t.Fatalf("UnknownFrees: got %d, want 0", n)
	}
	if err := a.CheckErrors(); !errors.Is(err, lfcell.ErrDoubleFree) {
		t.Fatalf("CheckErrors: got %v, want ErrDoubleFree", err)
	}
	if err := a.CheckErrors(); errors.Is(err, lfcell.ErrUnknownFree) {
		t.Fatalf("CheckErrors: got %v, want not ErrUnknownFree", err)
	}
}

func TestMonitoredAllocatorUnknownFree(t *testing.T) {
	a := lfcell.NewMonitoredAllocator[counter]()
	bogus := &counter{N: 99}

	a.Free(bogus) // never allocated by a

	if n := a.UnknownFrees(); n != 1 {
		t.Fatalf("UnknownFrees: got %d, want 1", n)
	}
	if n := a.DoubleFrees(); n != 0 {
		t.Fatalf("DoubleFrees: got %d, want 0", n)
	}
	if err := a.CheckErrors(); !errors.Is(err, lfcell.ErrUnknownFree) {
		t.Fatalf("CheckErrors: got %v, want ErrUnknownFree", err)
	}
	if err := a.CheckErrors(); errors.Is(err, lfcell.ErrDoubleFree) {
		t.Fatalf("CheckErrors: got %v, want not ErrDoubleFree", err)
	}
}

func TestMonitoredAllocatorBothFaultClasses(t *testing.T) {
	a := lfcell.NewMonitoredAllocator[counter]()
	p := a.Allocate(counter{N: 1})
	bogus := &counter{N: 99}

	a.Free(p)
	a.Free(p)     // double free
	a.Free(bogus) // unknown free

	err := a.CheckErrors()
	if !errors.Is(err, lfcell.ErrDoubleFree) {
		t.Fatalf("CheckErrors: got %v, want ErrDoubleFree", err)
	}
	if !errors.Is(err, lfcell.ErrUnknownFree) {
		t.Fatalf("CheckErrors: got %v, want ErrUnknownFree", err)
	}
}

func TestMonitoredAllocatorDump(t *testing.T) {
	a := lfcell.NewMonitoredAllocator[counter]()
	a.Allocate(counter{N: 1})

	var buf bytes.Buffer
	a.Dump(&buf)
	if buf.Len() == 0 {
		t.Fatal("Dump wrote nothing")
	}
}

func TestPooledAllocatorRoundTrip(t *testing.T) {
	a := lfcell.NewPooledAllocator[counter]()

	p := a.Allocate(counter{N: 7})
	if p.N != 7 {
		t.Fatalf("Allocate: got %d, want 7", p.N)
	}
	a.Free(p)

	p2 := a.Allocate(counter{N: 8})
	if p2.N != 8 {
		t.Fatalf("Allocate after Free: got %d, want 8", p2.N)
	}
}

func TestCellWithPooledAllocator(t *testing.T) {
	c := lfcell.NewBuilder(counter{N: 0}).
		WithAllocator(lfcell.NewPooledAllocator[counter]()).
		Build()
	defer c.Close()

	for range 100 {
		c.Invoke(func(v *counter) { v.N++ })
	}

	r := c.ReadOnly()
	defer r.Close()
	if got := r.Get().N; got != 100 {
		t.Fatalf("got %d, want 100", got)
	}
}
