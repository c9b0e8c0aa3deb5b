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

// option does work on a Set while it is being constructed.
type option[E Element] interface {
	apply(s *Set[E])
}

// Allocator supplies the memory a Set's storage needs. The default
// allocator uses Go's builtin make and leaves reclamation to the garbage
// collector; a caller that supplies pooled or arena-backed memory via
// WithAllocator is responsible for calling Set.Release so
// FreeMetadata/FreeElements run.
type Allocator[E Element] interface {
	// AllocMetadata should return a slice equivalent to make([]byte, n).
	AllocMetadata(n int) []byte

	// AllocElements should return a slice equivalent to make([]E, n).
	AllocElements(n int) []E

	// FreeMetadata may optionally release memory returned by AllocMetadata.
	FreeMetadata(v []byte)

	// FreeElements may optionally release memory returned by AllocElements.
	FreeElements(v []E)
}

type defaultAllocator[E Element] struct{}

func (defaultAllocator[E]) AllocMetadata(n int) []byte { return make([]byte, n) }
func (defaultAllocator[E]) AllocElements(n int) []E    { return make([]E, n) }
func (defaultAllocator[E]) FreeMetadata(v []byte)      {}
func (defaultAllocator[E]) FreeElements(v []E)         {}

type allocatorOption[E Element] struct {
	allocator Allocator[E]
}

func (op allocatorOption[E]) apply(s *Set[E]) {
	s.alloc = op.allocator
}

// WithAllocator specifies the Allocator a Set[E] should use for its
// metadata and element storage in place of the GC-backed default.
func WithAllocator[E Element](allocator Allocator[E]) option[E] {
	return allocatorOption[E]{allocator}
}

type capacityOption[E Element] struct {
	n int
}

// apply records the requested capacity; NewSet applies it once the storage
// has been created with its final allocator, since ReserveCapacity needs a
// live storage to grow from and options may be supplied in any order.
func (op capacityOption[E]) apply(s *Set[E]) {
	s.pendingCapacity = op.n
}

// WithCapacity pre-sizes a freshly constructed Set[E] to hold at least n
// elements without a subsequent growth rehash — the constructor-time
// equivalent of calling ReserveCapacity immediately after NewSet. It panics
// immediately if n is negative, rather than deferring the check to NewSet.
func WithCapacity[E Element](n int) option[E] {
	if n < 0 {
		panic("hashset: WithCapacity: negative capacity")
	}
	return capacityOption[E]{n}
}

type secretKeyOption[E Element] struct {
	key SecretKey
}

func (op secretKeyOption[E]) apply(s *Set[E]) {
	s.key = op.key
	s.hasKey = true
}

// WithSecretKey pins the SecretKey a single Set[E] hashes with, independent
// of (and without disturbing) the process-wide key GetSecretKey publishes.
// Every storage generation of this Set, including those produced by Clone
// and growth, keeps hashing with this key for the Set's whole lifetime. Use
// it for deterministic tests and reproducible benchmarks that need a fixed
// bucket layout across runs; production code should rely on the
// process-wide, os-random default instead.
func WithSecretKey[E Element](k0, k1 uint64) option[E] {
	return secretKeyOption[E]{key: SecretKey{k0: k0, k1: k1}}
}
