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
	"strconv"
	"testing"
)

func BenchmarkSetIter(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapIter))
	b.Run("impl=hashset", benchSizes(benchmarkSetIter))
}

func BenchmarkSetContainsHit(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetHit))
	b.Run("impl=hashset", benchSizes(benchmarkSetContainsHit))
}

func BenchmarkSetContainsMiss(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetMiss))
	b.Run("impl=hashset", benchSizes(benchmarkSetContainsMiss))
}

func BenchmarkSetInsertGrow(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapPutGrow))
	b.Run("impl=hashset", benchSizes(benchmarkSetInsertGrow))
}

func BenchmarkSetInsertPreAllocate(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapPutPreAllocate))
	b.Run("impl=hashset", benchSizes(benchmarkSetInsertPreAllocate))
}

func BenchmarkSetInsertRemove(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapPutDelete))
	b.Run("impl=hashset", benchSizes(benchmarkSetInsertRemove))
}

func benchSizes(f func(b *testing.B, n int)) func(*testing.B) {
	cases := []int{
		6, 12, 18, 24, 30,
		64,
		128,
		256,
		512,
		1024,
		2048,
		4096,
		8192,
		1 << 16,
	}
	return func(b *testing.B) {
		if invariants {
			b.Skip("skipped due to slowness under invariants")
		}
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n) })
		}
	}
}

func genIntKeys(start, end int) []Int {
	keys := make([]Int, end-start)
	for i := range keys {
		keys[i] = Int(start + i)
	}
	return keys
}

func benchmarkRuntimeMapIter(b *testing.B, n int) {
	m := make(map[Int]Int, n)
	for _, k := range genIntKeys(0, n) {
		m[k] = k
	}
	b.ResetTimer()
	var tmp Int
	for i := 0; i < b.N; i++ {
		for k, v := range m {
			tmp += k + v
		}
	}
}

func benchmarkSetIter(b *testing.B, n int) {
	s := NewSet[Int](WithCapacity[Int](n))
	for _, k := range genIntKeys(0, n) {
		s.Insert(k)
	}
	b.ResetTimer()
	var tmp Int
	for i := 0; i < b.N; i++ {
		s.All(func(e Int) bool {
			tmp += e
			return true
		})
	}
}

func benchmarkRuntimeMapGetHit(b *testing.B, n int) {
	m := make(map[Int]Int, n)
	keys := genIntKeys(0, n)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[keys[i%len(keys)]]
	}
}

func benchmarkSetContainsHit(b *testing.B, n int) {
	s := NewSet[Int](WithCapacity[Int](n))
	keys := genIntKeys(0, n)
	for _, k := range keys {
		s.Insert(k)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Contains(keys[i%len(keys)])
	}
}

func benchmarkRuntimeMapGetMiss(b *testing.B, n int) {
	m := make(map[Int]Int, n)
	keys := genIntKeys(0, n)
	miss := genIntKeys(-n, 0)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[miss[i%len(miss)]]
	}
}

func benchmarkSetContainsMiss(b *testing.B, n int) {
	s := NewSet[Int](WithCapacity[Int](n))
	keys := genIntKeys(0, n)
	miss := genIntKeys(-n, 0)
	for _, k := range keys {
		s.Insert(k)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Contains(miss[i%len(miss)])
	}
}

func benchmarkRuntimeMapPutGrow(b *testing.B, n int) {
	keys := genIntKeys(0, n)
	for i := 0; i < b.N; i++ {
		m := make(map[Int]Int)
		for _, k := range keys {
			m[k] = k
		}
	}
}

func benchmarkSetInsertGrow(b *testing.B, n int) {
	keys := genIntKeys(0, n)
	for i := 0; i < b.N; i++ {
		s := NewSet[Int]()
		for _, k := range keys {
			s.Insert(k)
		}
	}
}

func benchmarkRuntimeMapPutPreAllocate(b *testing.B, n int) {
	keys := genIntKeys(0, n)
	for i := 0; i < b.N; i++ {
		m := make(map[Int]Int, n)
		for _, k := range keys {
			m[k] = k
		}
	}
}

func benchmarkSetInsertPreAllocate(b *testing.B, n int) {
	keys := genIntKeys(0, n)
	for i := 0; i < b.N; i++ {
		s := NewSet[Int](WithCapacity[Int](n))
		for _, k := range keys {
			s.Insert(k)
		}
	}
}

func benchmarkRuntimeMapPutDelete(b *testing.B, n int) {
	keys := genIntKeys(0, n)
	m := make(map[Int]Int, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		m[k] = k
		delete(m, k)
	}
}

func benchmarkSetInsertRemove(b *testing.B, n int) {
	keys := genIntKeys(0, n)
	s := NewSet[Int](WithCapacity[Int](n))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		s.Insert(k)
		s.Remove(k)
	}
}
