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

// Int, Int64, Uint64 and String are ready-made Hashable wrappers around Go's
// builtin comparable primitives. Languages with compiler-derived hashing
// give every primitive type a Hashable conformance for free; Go has no
// equivalent derivation, so this package ships the handful of primitive
// wrappers most callers would otherwise have to write themselves before
// they can put an int or a string into a Set.
type Int int

// HashInto feeds i's native-width bits into h.
func (i Int) HashInto(h *Hasher) { h.AppendInt(int(i)) }

type Int64 int64

// HashInto feeds i's 64-bit bits into h.
func (i Int64) HashInto(h *Hasher) { h.AppendUint64(uint64(i)) }

type Uint64 uint64

// HashInto feeds u into h.
func (u Uint64) HashInto(h *Hasher) { h.AppendUint64(uint64(u)) }

type String string

// HashInto feeds s's length and bytes into h. The length prefix keeps
// HashInto's message unambiguous the way HashFields' string case does: two
// Strings that differ only in where a boundary falls (e.g. "ab","c" vs.
// "a","bc") are distinguished only when String values are compared whole,
// which is always true here since String has no multi-field composition of
// its own.
func (s String) HashInto(h *Hasher) {
	h.AppendUint64(uint64(len(s)))
	h.AppendString(string(s))
}
