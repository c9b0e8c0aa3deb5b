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

// Index identifies a position within one particular storage generation of a
// Set[E]. It is a value type, safe to copy and compare, but is
// only meaningful against the exact *storage[E] it was produced from: using
// it against a Set that has since reallocated (grown, or diverged via
// copy-on-write) is a programming error and panics, the same way indexing a
// slice after it has been reallocated out from under a stale pointer would
// be a bug in hand-written Go.
type Index[E Element] struct {
	bucket int
	gen    *storage[E]
}

// IsEnd reports whether idx is the sentinel end position. An end Index is
// valid only for comparison against other indices of the same generation,
// never for element access.
func (idx Index[E]) IsEnd() bool {
	return idx.bucket >= idx.gen.bucketCount()
}

func startIndexOf[E Element](s *storage[E]) Index[E] {
	idx := Index[E]{bucket: 0, gen: s}
	if idx.bucket < s.bucketCount() && s.occupied(idx.bucket) {
		return idx
	}
	return advanceIndex(idx)
}

func endIndexOf[E Element](s *storage[E]) Index[E] {
	return Index[E]{bucket: s.bucketCount(), gen: s}
}

// advanceIndex walks forward from idx.bucket+1 until it finds an occupied
// bucket or runs off the end.
func advanceIndex[E Element](idx Index[E]) Index[E] {
	s := idx.gen
	b := idx.bucket + 1
	for b < s.bucketCount() && !s.occupied(b) {
		b++
	}
	return Index[E]{bucket: b, gen: s}
}

// checkValid panics with a message naming the violated invariant if idx does
// not refer to a live, occupied bucket of s.
func checkValid[E Element](s *storage[E], idx Index[E]) {
	if idx.gen != s {
		panic("hashset: attempting to use an Index from a different Set generation")
	}
	if idx.bucket >= s.bucketCount() || !s.occupied(idx.bucket) {
		panic("hashset: attempting to access Set elements using an invalid Index")
	}
}
