// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// This file contains examples that use atomix concurrency primitives.
// These trigger false positives with Go's race detector because atomix
// atomic operations appear as regular memory accesses to the detector.
// The examples are correct; they're excluded from race testing.

package lfcell_test

import (
	"fmt"
	"sync"

	"code.hybscloud.com/lfcell"
)

type account struct {
	Balance int
}

// ExampleCell_ReadOnly demonstrates taking a read-only snapshot.
func ExampleCell_ReadOnly() {
	c := lfcell.NewCell(account{Balance: 100})
	defer c.Close()

	r := c.ReadOnly()
	fmt.Println(r.Get().Balance)
	r.Close()

	// Output:
	// 100
}

// ExampleCell_TryWrite demonstrates the best-effort write path, which
// reports a lost publish race instead of discarding it silently.
func ExampleCell_TryWrite() {
	c := lfcell.NewCell(account{Balance: 100})
	defer c.Close()

	w := c.TryWrite()
	w.Get().Balance -= 30
	if err := w.Close(); err != nil {
		fmt.Println("lost race:", err)
	}

	r := c.ReadOnly()
	fmt.Println(r.Get().Balance)
	r.Close()

	// Output:
	// 70
}

// ExampleInvoke demonstrates the retry-until-published mutation helper.
func ExampleInvoke() {
	c := lfcell.NewCell(account{Balance: 0})
	defer c.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lfcell.Invoke(c, func(v *account) struct{} {
				v.Balance += 10
				return struct{}{}
			})
		}()
	}
	wg.Wait()

	fmt.Println(c.Current().Balance)

	// Output:
	// 100
}

// ExampleWithAllocator demonstrates tracking allocation traffic with
// MonitoredAllocator.
func ExampleWithAllocator() {
	alloc := lfcell.NewMonitoredAllocator[account]()
	c := lfcell.NewBuilder(account{Balance: 50}).WithAllocator(alloc).Build()

	c.Invoke(func(v *account) { v.Balance += 25 })

	fmt.Println(c.Current().Balance)

	c.Close()
	fmt.Println("outstanding:", alloc.Outstanding())

	// Output:
	// 75
	// outstanding: 0
}
