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
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

// SecretKey is the 128-bit key that seeds every Hasher created by this
// package. It is not a cryptographic secret: its only purpose is to
// randomize bucket distributions across processes so that two processes (or
// two runs of the same process) hashing the same elements do not land on the
// same probe sequences, which would make accidental clustering and
// hash-flooding trivial.
type SecretKey struct {
	k0, k1 uint64
}

// published holds a pointer to the process-wide SecretKey once it has been
// set. It starts nil (uninitialized) and is set exactly once via
// publishSecretKey's compare-and-swap: the first writer to win the race
// publishes with release ordering (built into atomic.Pointer.CompareAndSwap
// on all supported architectures); every loser of the race discards its
// candidate key and simply loads the winner's.
var published atomic.Pointer[SecretKey]

// GetSecretKey returns the process-wide SecretKey, generating one from
// crypto/rand on first use. The same key is returned for the lifetime of the
// process unless SetFixedSecretKeyForTesting was called first.
func GetSecretKey() SecretKey {
	if k := published.Load(); k != nil {
		return *k
	}
	return publishSecretKey(newRandomSecretKey())
}

// SetFixedSecretKeyForTesting pins the process-wide SecretKey to a
// caller-supplied, deterministic value. It exists purely for reproducible
// tests and benchmarks; production code should never call it. It panics if
// the key has already been published by a prior call to
// GetSecretKey or SetFixedSecretKeyForTesting, since changing the key after
// any Hasher has consulted it would silently invalidate every table that
// hashed with the old key.
func SetFixedSecretKeyForTesting(k0, k1 uint64) {
	k := &SecretKey{k0: k0, k1: k1}
	if !published.CompareAndSwap(nil, k) {
		panic("hashset: secret key already published; SetFixedSecretKeyForTesting must run before any hashing")
	}
}

func newRandomSecretKey() *SecretKey {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand.Read only fails if the OS's secure random source is
		// unavailable, which this package treats as a fatal environment
		// problem rather than a recoverable error: there is no sane
		// degraded mode for a hash table whose whole point is resisting
		// predictable bucket placement.
		panic(fmt.Sprintf("hashset: reading process secret key: %v", err))
	}
	return &SecretKey{
		k0: binary.LittleEndian.Uint64(buf[0:8]),
		k1: binary.LittleEndian.Uint64(buf[8:16]),
	}
}

// publishSecretKey attempts to publish candidate as the process-wide key. If
// another goroutine won the race first, candidate is discarded and the
// winner's key is returned instead.
func publishSecretKey(candidate *SecretKey) SecretKey {
	if published.CompareAndSwap(nil, candidate) {
		return *candidate
	}
	return *published.Load()
}
