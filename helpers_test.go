// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref_test

import (
	"runtime"
	"strconv"
	"strings"
	"testing"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/ref"
)

// conn is the managed type most tests use.
// Destroy counts its calls so tests can check exactly-once destruction.
type conn struct {
	ref.Base
	id        int
	addr      string
	destroyed *atomix.Int32
	dead      atomix.Bool
	gid       atomix.Uint64 // goroutine Destroy ran on
}

func (c *conn) Destroy() {
	c.gid.Store(goroutineID())
	c.dead.Store(true)
	if c.destroyed != nil {
		c.destroyed.Add(1)
	}
}

func (c *conn) ID() int { return c.id }

func (c *conn) Addr() string { return c.addr }

// Stream is an interface view of conn.
type Stream interface {
	ref.Ownable
	ID() int
	Addr() string
}

// Identifier is a narrower view of Stream.
type Identifier interface {
	ref.Ownable
	ID() int
}

// plain is managed but implements neither Stream nor Destroyer.
type plain struct {
	ref.Base
}

func newConn(id int, destroyed *atomix.Int32) ref.Ptr[*conn] {
	return ref.MakeOwned(func(c *conn) {
		c.id = id
		c.destroyed = destroyed
	})
}

// useAllocator makes a the view allocator for the duration of the test.
func useAllocator(t *testing.T, a *ref.Allocator) {
	t.Helper()
	prev := ref.SetAllocator(a)
	t.Cleanup(func() { ref.SetAllocator(prev) })
}

func stressRounds(n int) int {
	if ref.RaceEnabled || testing.Short() {
		return n / 10
	}
	return n
}

// goroutineID returns the current goroutine's id from its stack header,
// "goroutine N [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	f := strings.Fields(string(buf[:n]))
	if len(f) < 2 {
		return 0
	}
	id, _ := strconv.ParseUint(f[1], 10, 64)
	return id
}
