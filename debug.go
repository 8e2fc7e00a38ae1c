// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build refdebug

package ref

// DebugEnabled is true when built with -tags refdebug.
// Invariant violations (double drop, count underflow or overflow,
// dereferencing a nil handle) panic instead of going undetected.
const DebugEnabled = true
