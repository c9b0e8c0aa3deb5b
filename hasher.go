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

import "encoding/binary"

// SipHash-1-3 magic initialization constants.
const (
	sipMagic0 = 0x736f6d6570736575
	sipMagic1 = 0x646f72616e646f6d
	sipMagic2 = 0x6c7967656e657261
	sipMagic3 = 0x7465646279746573
)

// Hasher is a stateful, keyed hash following SipHash-1-3: one compression
// round per 8-byte block, three finalization rounds. It is the sole hashing
// primitive this package exposes to element types.
//
// A Hasher is created fresh per hashing operation (or, for Hash, per value
// hashed), fed with Append*/AppendBytes calls in a fixed order, and consumed
// exactly once by Finalize. Every method other than Finalize may be called
// any number of times before finalization; calling anything on a Hasher
// after Finalize is a programming error and panics.
type Hasher struct {
	v0, v1, v2, v3 uint64

	// tail buffers up to 7 bytes that have not yet completed an 8-byte
	// block; length is the running total of all bytes ever appended (its
	// low byte feeds the SipHash finalization padding).
	tail      [8]byte
	tailLen   int
	length    uint64
	finalized bool
}

// NewHasher returns a Hasher seeded from key per the SipHash key schedule.
func NewHasher(key SecretKey) *Hasher {
	h := &Hasher{
		v0: key.k0 ^ sipMagic0,
		v1: key.k1 ^ sipMagic1,
		v2: key.k0 ^ sipMagic2,
		v3: key.k1 ^ sipMagic3,
	}
	return h
}

func (h *Hasher) checkNotFinalized() {
	if h.finalized {
		panic("hashset: Hasher used after Finalize")
	}
}

// AppendUint32 feeds the little-endian bytes of v into the hash stream. A
// 32-bit append is part of the message: it is distinguishable from an
// AppendUint64 of the same numeric value.
func (h *Hasher) AppendUint32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	h.AppendBytes(buf[:])
}

// AppendUint64 feeds the little-endian bytes of v into the hash stream.
func (h *Hasher) AppendUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	h.AppendBytes(buf[:])
}

// AppendInt feeds the native machine-word representation of v. This package
// always hashes the native width of int (8 bytes on every platform it
// targets) rather than a canonicalized 64-bit form; the two happen to
// coincide here, but the rule is stated explicitly since on a 32-bit target
// AppendInt feeds 4 bytes, producing a different stream for the same value.
func (h *Hasher) AppendInt(v int) {
	if ^uint(0)>>32 == 0 {
		h.AppendUint32(uint32(v))
		return
	}
	h.AppendUint64(uint64(v))
}

// AppendString feeds the bytes of s, preceded by nothing extra: callers that
// need length-prefixing to avoid ambiguity between e.g. ("ab","c") and
// ("a","bc") must append the length themselves (see HashFields).
func (h *Hasher) AppendString(s string) {
	h.AppendBytes([]byte(s))
}

// AppendBytes feeds buf into the hash stream one completed 8-byte block at a
// time, buffering any remainder for the next Append* call or for Finalize's
// padding.
func (h *Hasher) AppendBytes(buf []byte) {
	h.checkNotFinalized()
	h.length += uint64(len(buf))

	if h.tailLen > 0 {
		n := copy(h.tail[h.tailLen:], buf)
		h.tailLen += n
		buf = buf[n:]
		if h.tailLen < 8 {
			return
		}
		h.consumeBlock(binary.LittleEndian.Uint64(h.tail[:]))
		h.tailLen = 0
	}

	for len(buf) >= 8 {
		h.consumeBlock(binary.LittleEndian.Uint64(buf))
		buf = buf[8:]
	}

	h.tailLen = copy(h.tail[:], buf)
}

// Finalize pads the buffered tail with the low byte of the total message
// length, runs the three SipHash-1-3 finalization rounds, and returns the
// XOR of all four lanes truncated to machine-word width. Finalize is
// terminal: the Hasher must not be used again afterward.
func (h *Hasher) Finalize() int {
	h.checkNotFinalized()

	var last [8]byte
	copy(last[:], h.tail[:h.tailLen])
	last[7] = byte(h.length)
	h.consumeBlock(binary.LittleEndian.Uint64(last[:]))

	h.v2 ^= 0xff
	h.sipRound()
	h.sipRound()
	h.sipRound()

	h.finalized = true
	digest := h.v0 ^ h.v1 ^ h.v2 ^ h.v3
	return int(digest)
}

// consumeBlock mixes one 8-byte message block into the state with a single
// compression round (the "1" in SipHash-1-3).
func (h *Hasher) consumeBlock(m uint64) {
	h.v3 ^= m
	h.sipRound()
	h.v0 ^= m
}

func (h *Hasher) sipRound() {
	h.v0 += h.v1
	h.v1 = rotl64(h.v1, 13)
	h.v1 ^= h.v0
	h.v0 = rotl64(h.v0, 32)

	h.v2 += h.v3
	h.v3 = rotl64(h.v3, 16)
	h.v3 ^= h.v2

	h.v0 += h.v3
	h.v3 = rotl64(h.v3, 21)
	h.v3 ^= h.v0

	h.v2 += h.v1
	h.v1 = rotl64(h.v1, 17)
	h.v1 ^= h.v2
	h.v2 = rotl64(h.v2, 32)
}

func rotl64(x uint64, n uint) uint64 {
	return (x << n) | (x >> (64 - n))
}

// HashFields hashes each field in turn, in the order given. It is the
// hand-written substitute for a compiler-derived hash(into:): element types
// with several stored fields can call this instead of re-deriving
// field-by-field hashing themselves. Supported field
// types are string, []byte, int, int32, int64, uint32, uint64 and bool, plus
// nested Hashable values; any other type panics, since silently falling back to
// fmt.Sprintf-based hashing would violate the "agrees with ==" hashing law.
func HashFields(h *Hasher, fields ...any) {
	for _, f := range fields {
		switch v := f.(type) {
		case Hashable:
			v.HashInto(h)
		case string:
			h.AppendUint64(uint64(len(v)))
			h.AppendString(v)
		case []byte:
			h.AppendUint64(uint64(len(v)))
			h.AppendBytes(v)
		case int:
			h.AppendInt(v)
		case int32:
			h.AppendUint32(uint32(v))
		case int64:
			h.AppendUint64(uint64(v))
		case uint32:
			h.AppendUint32(v)
		case uint64:
			h.AppendUint64(v)
		case bool:
			if v {
				h.AppendUint32(1)
			} else {
				h.AppendUint32(0)
			}
		default:
			panic("hashset: HashFields: unsupported field type, implement Hashable instead")
		}
	}
}

// Hashable is the capability every Set/Map element type must implement: the
// ability to feed its own equality-relevant bits into a Hasher. Implementers
// must be deterministic and must agree with their type's equality: a == b
// implies a and b hash identical byte streams into any Hasher.
type Hashable interface {
	HashInto(h *Hasher)
}

// Element is the type constraint satisfied by Set elements: comparable
// (reflexive, symmetric, transitive equality) plus Hashable, congruent with
// that equality.
type Element interface {
	comparable
	Hashable
}
