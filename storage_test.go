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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyStorageSharedAndNotUnique(t *testing.T) {
	alloc := defaultAllocator[Int]{}
	s1 := emptyStorage[Int](alloc, SecretKey{})
	s2 := emptyStorage[Int](alloc, SecretKey{})

	require.Same(t, &globalEmptyMetadata[0], &s1.metadata[0])
	require.Same(t, &globalEmptyMetadata[0], &s2.metadata[0])
	require.False(t, s1.isUnique())
	require.False(t, s2.isUnique())
}

func TestAllocateRejectsScaleZero(t *testing.T) {
	require.Panics(t, func() { allocate[Int](defaultAllocator[Int]{}, 0, SecretKey{}) })
}

func TestStorageRetainRelease(t *testing.T) {
	s := allocate[Int](defaultAllocator[Int]{}, 2, SecretKey{})
	require.True(t, s.isUnique())

	s.retain()
	require.False(t, s.isUnique())

	s.release()
	require.True(t, s.isUnique())
}

func TestStorageCopyIsIndependent(t *testing.T) {
	s := allocate[Int](defaultAllocator[Int]{}, 3, SecretKey{})
	h := s.hashElement(Int(42))
	b, _ := s.lookupFirst(h)
	s.insert(h, b)
	s.elements[b] = Int(42)
	s.count++

	c := s.copy()
	require.Equal(t, s.count, c.count)
	require.Equal(t, s.scale, c.scale)

	hb, found := c.lookupFirst(h)
	require.True(t, found)
	require.Equal(t, Int(42), c.elements[hb])

	// Mutating the copy must not affect the original.
	h2 := c.hashElement(Int(99))
	b2, _ := c.lookupFirst(h2)
	c.insert(h2, b2)
	c.elements[b2] = Int(99)
	c.count++

	_, found = s.lookupFirst(h2)
	if found {
		require.NotEqual(t, Int(99), s.elements[b2])
	}
	require.Equal(t, 1, s.count)
	require.Equal(t, 2, c.count)
}

func TestStorageGrowToRehashesEveryElement(t *testing.T) {
	s := allocate[Int](defaultAllocator[Int]{}, 2, SecretKey{}) // bucketCount=4, capacity=3
	inserted := []Int{1, 2, 3}
	for _, e := range inserted {
		h := s.hashElement(e)
		b, _ := s.lookupFirst(h)
		s.insert(h, b)
		s.elements[b] = e
		s.count++
	}

	grown := s.growTo(4) // bucketCount=16
	require.Equal(t, uint8(4), grown.scale)
	require.Equal(t, len(inserted), grown.count)

	for _, e := range inserted {
		h := grown.hashElement(e)
		b, found := grown.lookupFirst(h)
		require.True(t, found, "element %v missing after growTo", e)
		require.Equal(t, e, grown.elements[b])
	}
}

// TestStorageGrowToPreservesElementsThatCollideInTheNewTable forces every
// rehashed element to land on the same ideal bucket and payload in dst, so
// growTo's free-slot search must walk past lookupFirst's first hit (an
// already-occupied bucket) via lookupNext instead of overwriting it.
func TestStorageGrowToPreservesElementsThatCollideInTheNewTable(t *testing.T) {
	s := allocate[collider](defaultAllocator[collider]{}, 2, SecretKey{})
	const n = 3 // bucketCount=4, capacity=3: fills s exactly
	for i := 0; i < n; i++ {
		e := collider{id: i}
		h := s.hashElement(e)
		b, found := s.lookupFirst(h)
		for found {
			b, found = s.lookupNext(h, b)
		}
		s.insert(h, b)
		s.elements[b] = e
		s.count++
	}

	grown := s.growTo(6) // bucketCount=64, every collider still shares one payload/ideal bucket
	require.Equal(t, n, grown.count)

	occupied := 0
	for b := 0; b < grown.bucketCount(); b++ {
		if grown.occupied(b) {
			occupied++
		}
	}
	require.Equal(t, n, occupied)

	seen := map[int]bool{}
	for b := 0; b < grown.bucketCount(); b++ {
		if grown.occupied(b) {
			seen[grown.elements[b].id] = true
		}
	}
	for i := 0; i < n; i++ {
		require.True(t, seen[i], "collider id %d missing after growTo", i)
	}
}

func TestStorageDeallocateDestroysElements(t *testing.T) {
	s := allocate[Int](defaultAllocator[Int]{}, 2, SecretKey{})
	h := s.hashElement(Int(5))
	b, _ := s.lookupFirst(h)
	s.insert(h, b)
	s.elements[b] = Int(5)
	s.count++

	s.deallocate()
	require.Equal(t, Int(0), s.elements[b])
}
