// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashset

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// globalEmptyMetadata is the single-bucket, all-zero metadata array shared
// by every newly-constructed, empty Set[E] regardless of E. Because the
// metadata array's element type is always byte no matter what E is, one
// package-level slice can back every type instantiation. It must never be
// mutated; storage.isUnique() treats scale==0 as definitionally shared
// precisely so nothing ever writes through this slice.
var globalEmptyMetadata = []byte{0}

// storage is the tail-allocated-in-spirit block backing one generation of a
// Set: a metadata array sized to bucketCount, an element array sized to
// bucketCount, and the bookkeeping (count, scale, seed, refcount) needed to
// answer lookups and decide when copy-on-write must fire. Go allocates the
// metadata and element arrays as two separate backing arrays rather than one
// contiguous block, trading the single-allocation locality win a literal
// tail allocation would give for safety: a manually-computed,
// alignment-aware single allocation would require exactly the unsafe
// pointer arithmetic this design otherwise avoids.
type storage[E Element] struct {
	tableMeta
	elements []E
	count    int
	seed     uint64
	key      SecretKey
	alloc    Allocator[E]

	refcount atomic.Int32

	// pad separates the hot fields above (touched on every Insert/Remove)
	// from whatever immediately follows this struct in memory, so that two
	// Set[E] values allocated back-to-back don't false-share a cache line
	// across independent, single-goroutine-each use.
	pad cpu.CacheLinePad
}

// emptyStorage returns a fresh, lightweight storage header pointing at the
// shared globalEmptyMetadata bytes. Every Set[E] created via NewSet starts
// out pointing at one of these; the header itself is not literally a single
// global pointer (Go generics instantiate storage[E] per type argument), but
// the actual backing byte array it reads is, which is what lets every empty
// Set skip allocating regardless of element type.
func emptyStorage[E Element](alloc Allocator[E], key SecretKey) *storage[E] {
	s := &storage[E]{
		tableMeta: tableMeta{metadata: globalEmptyMetadata, scale: 0},
		key:       key,
		alloc:     alloc,
	}
	s.refcount.Store(1)
	return s
}

// allocate creates a fresh storage of the given scale with zeroed metadata
// (every bucket unoccupied) and a freshly allocated element slice. scale
// must be >= 1: scale 0 is reserved for the shared empty singleton and
// allocate never produces one, so isUnique can use scale==0 as an
// unambiguous "this is the shared singleton" test.
func allocate[E Element](alloc Allocator[E], scale uint8, key SecretKey) *storage[E] {
	if scale == 0 {
		panic("hashset: allocate: scale must be >= 1; use emptyStorage for scale 0")
	}
	bucketCount := 1 << scale
	s := &storage[E]{
		tableMeta: tableMeta{metadata: alloc.AllocMetadata(bucketCount), scale: scale},
		elements:  alloc.AllocElements(bucketCount),
		seed:      uint64(scale),
		key:       key,
		alloc:     alloc,
	}
	s.refcount.Store(1)
	return s
}

// deallocate returns s's backing arrays to its allocator after destroying
// every live element. It is only meaningful for allocators that
// manage memory outside the GC's reach (WithAllocator); the default
// allocator's Free methods are no-ops and leave reclamation to the GC.
func (s *storage[E]) deallocate() {
	if s.scale == 0 {
		return
	}
	for b := 0; b < s.bucketCount(); b++ {
		if s.occupied(b) {
			storageDelegate[E]{s}.destroy(b)
		}
	}
	s.alloc.FreeMetadata(s.metadata)
	s.alloc.FreeElements(s.elements)
}

func (s *storage[E]) capacity() int { return capacityForScale(s.scale) }

// isUnique reports whether s may be mutated in place. The shared empty
// singleton (scale==0) is never unique by definition — its backing metadata
// array is aliased by every other empty Set[E] instance. Any other storage
// is unique iff exactly one handle currently retains it.
func (s *storage[E]) isUnique() bool {
	return s.scale > 0 && s.refcount.Load() == 1
}

func (s *storage[E]) retain() { s.refcount.Add(1) }

// release decrements s's refcount, deallocating s's backing arrays once the
// last handle drops its reference. For the default GC-backed allocator,
// deallocate's Free calls are no-ops and reclamation is left to the garbage
// collector as usual; for a caller-supplied Allocator (WithAllocator),
// release is what actually returns the memory. Skipping a Release is always
// safe under the default allocator: it only delays GC reclamation, never
// produces a wrong answer.
func (s *storage[E]) release() {
	if s.scale == 0 {
		return
	}
	if s.refcount.Add(-1) == 0 {
		s.deallocate()
	}
}

// hashElement computes e's hash using a fresh Hasher seeded with this
// storage's SecretKey (the process-wide key by default, or the key pinned by
// WithSecretKey at construction time), with this storage's per-capacity seed
// mixed directly into the first two lanes before the element contributes its
// own bits.
func (s *storage[E]) hashElement(e E) int {
	h := NewHasher(s.key)
	h.mixSeed(s.seed)
	e.HashInto(h)
	return h.Finalize()
}

// mixSeed folds seed into the first two lanes, v0 and v1. It
// changes every bucket mapping the same way appending seed as an extra
// message word would, without growing the hashed byte stream (and
// therefore the length byte consumed at Finalize) for every single element
// hashed against this table.
func (h *Hasher) mixSeed(seed uint64) {
	h.v0 ^= seed
	h.v1 ^= seed
}

// copy allocates a new storage of the same scale and deep-enough-copies
// metadata and elements: metadata is copied verbatim, and each occupied
// element slot is copied by ordinary Go assignment. Go has no
// assignment-time deep-copy hook, so an element type E holding reference
// fields (slices, maps, pointers) is only shallow-copied here, matching the
// semantics of any other Go value copy — callers whose E needs independent
// backing storage across clones must give E its own Clone-like method and
// call it from HashInto's caller, outside this package's remit.
func (s *storage[E]) copy() *storage[E] {
	dst := allocate[E](s.alloc, s.scale, s.key)
	copy(dst.metadata, s.metadata)
	copy(dst.elements, s.elements)
	dst.count = s.count
	dst.seed = s.seed
	return dst
}

// growTo allocates a new storage at newScale and unconditionally rehashes
// every element of s into it: growth always rehashes because scale changes
// both the payload bits and the bucket mapping. The returned storage has
// refcount 1; s is left untouched (the caller is responsible for releasing
// it once the grown storage is installed).
func (s *storage[E]) growTo(newScale uint8) *storage[E] {
	dst := allocate[E](s.alloc, newScale, s.key)
	for b := 0; b < s.bucketCount(); b++ {
		if !s.occupied(b) {
			continue
		}
		e := s.elements[b]
		h := dst.hashElement(e)
		at, found := dst.lookupFirst(h)
		for found {
			at, found = dst.lookupNext(h, at)
		}
		dst.insert(h, at)
		dst.elements[at] = e
		dst.count++
	}
	return dst
}

// storageDelegate adapts a *storage[E] to the tableDelegate capability set
// that deletion repair needs. It is re-created per call rather than cached
// on storage because it is a zero-allocation value wrapper (a single
// pointer) and its only job is forwarding.
type storageDelegate[E Element] struct {
	s *storage[E]
}

func (d storageDelegate[E]) idealBucket(b int) int {
	h := d.s.hashElement(d.s.elements[b])
	return h & d.s.mask()
}

func (d storageDelegate[E]) move(from, to int) {
	d.s.elements[to] = d.s.elements[from]
	var zero E
	d.s.elements[from] = zero
}

func (d storageDelegate[E]) swap(a, b int) {
	d.s.elements[a], d.s.elements[b] = d.s.elements[b], d.s.elements[a]
}

func (d storageDelegate[E]) destroy(b int) {
	var zero E
	d.s.elements[b] = zero
}
