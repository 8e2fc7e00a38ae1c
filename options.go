// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ref

// DefaultViewCapacity is the free-list capacity of the allocator in use
// before any call to [SetAllocator].
const DefaultViewCapacity = 1024

// Options configures allocator creation.
type Options struct {
	// Free-list capacity (rounds up to next power of 2)
	capacity int

	// Maximum number of live views, 0 for no limit
	limit int64
}

// Builder creates view allocators with fluent configuration.
//
// Example:
//
//	// Recycle up to 4096 views, no limit on live views
//	a := ref.Views(4096).Build()
//
//	// Cap live views at one million; Weaken fails with ErrViewLimit beyond
//	a := ref.Views(4096).Limit(1 << 20).Build()
//
//	prev := ref.SetAllocator(a)
type Builder struct {
	opts Options
}

// Views creates an allocator builder with the given free-list capacity.
//
// Capacity rounds up to the next power of 2. It bounds how many released
// views are kept for reuse, not how many can be live at once.
//
// Panics if capacity < 2.
func Views(capacity int) *Builder {
	if capacity < 2 {
		panic("ref: capacity must be >= 2")
	}
	return &Builder{opts: Options{capacity: capacity}}
}

// Limit caps the number of views that may be live at once.
//
// When the cap is reached, [Strong.Weaken] returns [ErrViewLimit] instead
// of allocating. Zero removes the cap. Panics if n < 0.
func (b *Builder) Limit(n int) *Builder {
	if n < 0 {
		panic("ref: limit must be >= 0")
	}
	b.opts.limit = int64(n)
	return b
}

// Build creates the allocator.
func (b *Builder) Build() *Allocator {
	return newAllocator(b.opts)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
