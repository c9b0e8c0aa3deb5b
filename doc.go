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

// Package hashset implements a value-typed, copy-on-write hash set built on
// an open-addressed hash table.
//
// # Design
//
// Unlike Go's builtin map, a Set[E]'s backing storage has value semantics
// under the hood: Clone hands out a second handle on the same storage, and
// that storage is only deep-copied the first time either handle mutates it
// while shared. Because Go has no copy constructor to hook a plain struct
// assignment, this divergence is made explicit through Clone rather than
// happening implicitly on `:=`; see the package-level example and the Clone
// doc comment for details.
//
// The underlying table is an open-addressing design: a byte of metadata per
// bucket (one bit marking occupancy, seven bits of hash payload used to
// prune probe candidates before comparing elements with ==) backs linear probing with
// wraparound, and deletions repair the probe chain with a backward shift
// rather than leaving tombstones, so the table never degrades under
// Insert/Remove churn the way a tombstone-based design can. Every element
// hash is produced by a process-seeded SipHash-1-3 instance (hasher.go),
// which resists accidental bucket clustering across processes without
// pretending to be cryptographically secure.
//
// A Set is NOT goroutine-safe. Multiple readers of distinct, unmutated
// handles are safe; a writer must own a uniquely-referenced handle (or
// trigger the copy-on-write path to get one).
package hashset
