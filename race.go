// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package ref

// RaceEnabled is true when the race detector is active.
// Used by tests to shrink stress rounds, which run an order of magnitude
// slower under the detector.
const RaceEnabled = true
