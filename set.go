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

import "fmt"

// Set is a handle onto a copy-on-write hash set. Its zero value is not
// usable; construct one with NewSet.
//
// A Set is NOT goroutine-safe. Multiple readers of distinct, unmutated
// handles (e.g. two results of Clone) are safe; a writer must own a
// uniquely-referenced handle, which every mutating method arranges for
// itself by copying the backing storage the first time it observes that
// handle is shared (see (*Set[E]).ensureCapacity).
type Set[E Element] struct {
	st    *storage[E]
	alloc Allocator[E]

	// pendingCapacity records a WithCapacity option until NewSet has built
	// the default allocator and the empty-singleton storage to apply it
	// against; -1 means "no WithCapacity option was given". It is only
	// meaningful during construction.
	pendingCapacity int

	// key is the SecretKey every storage generation of this Set hashes
	// with, fixed for the Set's lifetime at construction time: either the
	// value pinned by WithSecretKey, or the process-wide key from
	// GetSecretKey.
	key SecretKey

	// hasKey records whether WithSecretKey supplied key explicitly, so
	// NewSet only pays for GetSecretKey's process-wide CAS publication when
	// no override was given.
	hasKey bool
}

// NewSet constructs an empty Set[E], applying any options in order. Without
// options it starts out pointing at the shared empty singleton storage and
// allocates nothing, hashing with the process-wide SecretKey.
func NewSet[E Element](opts ...option[E]) *Set[E] {
	s := &Set[E]{pendingCapacity: -1}
	for _, opt := range opts {
		opt.apply(s)
	}
	if !s.hasKey {
		s.key = GetSecretKey()
	}
	if s.alloc == nil {
		s.alloc = defaultAllocator[E]{}
	}
	s.st = emptyStorage[E](s.alloc, s.key)
	if s.pendingCapacity > 0 {
		s.ReserveCapacity(s.pendingCapacity)
	}
	if invariants {
		s.checkInvariants()
	}
	return s
}

// Clone returns a second handle on the same backing storage, retaining a
// reference so the two handles participate correctly in copy-on-write
// accounting. The two handles are independent from the caller's
// perspective: mutating one through Insert/Remove/Update never affects the
// other.
//
// A bare `s2 := *s1` is NOT equivalent to Clone: it aliases s1's storage
// without bumping the refcount, so the first mutation through either handle
// would incorrectly believe it holds the only reference and mutate in
// place, corrupting the other handle's view. Always use Clone.
func (s *Set[E]) Clone() *Set[E] {
	s.st.retain()
	return &Set[E]{st: s.st, alloc: s.alloc, pendingCapacity: -1, key: s.key, hasKey: s.hasKey}
}

// Release drops this handle's reference to its backing storage, freeing it
// via the configured Allocator once the last handle is released. Using a
// Set after Release is a programming error. Release is unnecessary (but
// harmless) for Sets using the default GC-backed allocator: it only
// hastens reclamation, the same way Go's standard containers never require
// an explicit Close under a garbage collector.
func (s *Set[E]) Release() {
	s.st.release()
}

// Count returns the number of elements in the set.
func (s *Set[E]) Count() int { return s.st.count }

// IsEmpty reports whether the set has no elements.
func (s *Set[E]) IsEmpty() bool { return s.st.count == 0 }

// Capacity returns the number of elements the set can hold before its next
// insertion would trigger a growth rehash.
func (s *Set[E]) Capacity() int { return s.st.capacity() }

// Contains reports whether e (or an element equal to it) is in the set.
func (s *Set[E]) Contains(e E) bool {
	_, found := s.find(e)
	return found
}

// find probes for e and returns the bucket holding an equal element
// (found=true) or the bucket where lookupFirst's probe terminated
// (found=false, only meaningful to callers that are about to insert).
func (s *Set[E]) find(e E) (bucket int, found bool) {
	h := s.st.hashElement(e)
	b, ok := s.st.lookupFirst(h)
	for ok {
		if s.st.elements[b] == e {
			return b, true
		}
		b, ok = s.st.lookupNext(h, b)
	}
	return b, false
}

// Insert adds e to the set unless an equal element is already present. It
// returns whether e was newly inserted and the element now stored for that
// equality class: on a hit this is the prior element unchanged, on a miss
// it is e itself.
func (s *Set[E]) Insert(e E) (inserted bool, member E) {
	for {
		h := s.st.hashElement(e)
		b, found := s.st.lookupFirst(h)
		for found {
			if s.st.elements[b] == e {
				tracef("insert(%v): already present at bucket %d\n", e, b)
				return false, s.st.elements[b]
			}
			b, found = s.st.lookupNext(h, b)
		}

		if s.st.scale == 0 || s.st.count == s.st.capacity() || !s.st.isUnique() {
			s.ensureCapacity(1)
			continue
		}

		s.st.insert(h, b)
		s.st.elements[b] = e
		s.st.count++
		tracef("insert(%v): new entry at bucket %d, count=%d\n", e, b, s.st.count)
		if invariants {
			s.checkInvariants()
		}
		return true, e
	}
}

// Update behaves like Insert, except that when an equal element is already
// present it overwrites it with e rather than leaving it unchanged. It
// returns the prior element (zero value if none existed) and whether a
// prior element was replaced.
func (s *Set[E]) Update(e E) (prior E, replaced bool) {
	for {
		h := s.st.hashElement(e)
		b, found := s.st.lookupFirst(h)
		for found {
			if s.st.elements[b] == e {
				if !s.st.isUnique() {
					s.copyInPlace()
				}
				prior = s.st.elements[b]
				s.st.elements[b] = e
				tracef("update(%v): replaced bucket %d\n", e, b)
				if invariants {
					s.checkInvariants()
				}
				return prior, true
			}
			b, found = s.st.lookupNext(h, b)
		}

		if s.st.scale == 0 || s.st.count == s.st.capacity() || !s.st.isUnique() {
			s.ensureCapacity(1)
			continue
		}

		s.st.insert(h, b)
		s.st.elements[b] = e
		s.st.count++
		tracef("update(%v): new entry at bucket %d, count=%d\n", e, b, s.st.count)
		if invariants {
			s.checkInvariants()
		}
		return prior, false
	}
}

// Remove deletes e (or the element equal to it) from the set, returning the
// removed element and true, or the zero value and false if no equal element
// was present.
func (s *Set[E]) Remove(e E) (removed E, ok bool) {
	h := s.st.hashElement(e)
	b, found := s.st.lookupFirst(h)
	for found {
		if s.st.elements[b] == e {
			break
		}
		b, found = s.st.lookupNext(h, b)
	}
	if !found {
		return removed, false
	}

	if !s.st.isUnique() {
		s.copyInPlace()
	}

	removed = s.st.elements[b]
	s.st.delete(h, b, storageDelegate[E]{s.st})
	s.st.count--
	tracef("remove(%v): removed bucket %d, count=%d\n", e, b, s.st.count)
	if invariants {
		s.checkInvariants()
	}
	return removed, true
}

// ReserveCapacity ensures the set can hold at least n elements without a
// subsequent growth rehash, growing the backing storage now if necessary.
// It never shrinks the set and never needs to uniquify first:
// growth always allocates a fresh storage block and rehashes into it,
// leaving any other handle's reference to the old block untouched.
func (s *Set[E]) ReserveCapacity(n int) {
	if n < 0 {
		panic("hashset: ReserveCapacity: negative capacity")
	}
	if s.st.scale == 0 {
		if n == 0 {
			return
		}
		s.st = allocate[E](s.alloc, scaleForCapacity(n), s.key)
		return
	}
	if s.st.capacity() >= n {
		return
	}
	newScale := s.st.scale
	for capacityForScale(newScale) < n {
		newScale++
	}
	grown := s.st.growTo(newScale)
	s.st.release()
	s.st = grown
}

// ensureCapacity makes s.st unique and able to accept extra more elements
// without exceeding the load factor, reallocating only if one of those
// conditions doesn't already hold. Uniquifying and growing both end up
// replacing s.st with a freshly allocated storage, so there is no benefit
// to treating them as separate passes.
func (s *Set[E]) ensureCapacity(extra int) {
	needed := s.st.count + extra
	switch {
	case s.st.scale == 0:
		scale := scaleForCapacity(needed)
		if scale == 0 {
			scale = 1
		}
		s.st = allocate[E](s.alloc, scale, s.key)
	case needed > s.st.capacity():
		newScale := s.st.scale
		for capacityForScale(newScale) < needed {
			newScale++
		}
		grown := s.st.growTo(newScale)
		s.st.release()
		s.st = grown
	case !s.st.isUnique():
		s.copyInPlace()
	}
}

// copyInPlace replaces s.st with an independent copy of the same scale,
// releasing this handle's reference to the shared original. Bucket indices
// computed against the old s.st remain valid against the copy because copy
// preserves metadata and element layout verbatim.
func (s *Set[E]) copyInPlace() {
	copied := s.st.copy()
	s.st.release()
	s.st = copied
}

// All calls yield once for every element in the set, in bucket order, and
// stops early if yield returns false. Iteration requires a stable storage
// generation: if the set is mutated while All is running — detected here by
// observing Count() change between buckets — the iteration panics rather
// than silently producing a partial or duplicated view.
func (s *Set[E]) All(yield func(e E) bool) {
	st := s.st
	startCount := st.count
	for b := 0; b < st.bucketCount(); b++ {
		if s.Count() != startCount {
			panic("hashset: Set mutated during iteration")
		}
		if st.occupied(b) {
			if !yield(st.elements[b]) {
				return
			}
		}
	}
}

// Start returns an Index positioned at the first element, or End() if the
// set is empty.
func (s *Set[E]) Start() Index[E] {
	return startIndexOf(s.st)
}

// End returns the sentinel Index one past the last bucket. It is valid only
// for comparison against other indices of the same Set, never for At.
func (s *Set[E]) End() Index[E] {
	return endIndexOf(s.st)
}

// Next returns the Index immediately after idx, skipping unoccupied
// buckets. idx must belong to this Set's current storage generation.
func (s *Set[E]) Next(idx Index[E]) Index[E] {
	if idx.gen != s.st {
		panic("hashset: attempting to advance an Index from a different Set generation")
	}
	return advanceIndex(idx)
}

// At returns the element at idx. idx must be valid: it must belong to this
// Set's current storage generation and refer to an occupied bucket, or At
// panics naming the violated invariant.
func (s *Set[E]) At(idx Index[E]) E {
	checkValid(s.st, idx)
	return s.st.elements[idx.bucket]
}

func (s *Set[E]) checkInvariants() {
	st := s.st
	if st.scale == 0 {
		if st.count != 0 {
			panic("hashset: invariant failed: empty singleton storage has nonzero count")
		}
		return
	}

	bucketCount := st.bucketCount()
	if bucketCount&(bucketCount-1) != 0 {
		panic(fmt.Sprintf("hashset: invariant failed: bucketCount %d is not a power of two", bucketCount))
	}
	if st.count > st.capacity() {
		panic(fmt.Sprintf("hashset: invariant failed: count %d exceeds capacity %d", st.count, st.capacity()))
	}

	occupiedCount, freeCount := 0, 0
	mask := st.mask()
	for b := 0; b < bucketCount; b++ {
		if !st.occupied(b) {
			freeCount++
			continue
		}
		occupiedCount++

		e := st.elements[b]
		h := st.hashElement(e)
		ideal := h & mask
		for x := ideal; x != b; x = succ(x, mask) {
			if !st.occupied(x) {
				panic(fmt.Sprintf("hashset: invariant failed: contiguous-chain broken between ideal %d and bucket %d", ideal, b))
			}
		}

		wantPayload := payloadFor(h, st.scale)
		if st.payload(b) != wantPayload {
			panic(fmt.Sprintf("hashset: invariant failed: bucket %d payload %#02x != expected %#02x", b, st.payload(b), wantPayload))
		}
	}

	if occupiedCount != st.count {
		panic(fmt.Sprintf("hashset: invariant failed: %d occupied buckets but count is %d", occupiedCount, st.count))
	}
	if freeCount == 0 {
		panic("hashset: invariant failed: no free bucket")
	}
}
