// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package lfcell

// RaceEnabled is true when the race detector is active.
// Used by tests to skip stress tests whose correctness argument rests on
// happens-before edges established by atomix's acquire/release orderings,
// which the race detector cannot observe.
const RaceEnabled = true
