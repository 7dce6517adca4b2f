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

package restable

import (
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
	"github.com/cespare/xxhash/v2"
)

type benchRes struct {
	id IntID[uint64]
	Link[benchRes]
}

func (r *benchRes) ResourceID() IntID[uint64] { return r.id }

func benchSizes(f func(b *testing.B, n int)) func(*testing.B) {
	var cases = []int{16, 128, 1024, 8192, 1 << 16}
	return func(b *testing.B) {
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n) })
		}
	}
}

func newBenchTable(b *testing.B, n int) (*Table[benchRes, IntID[uint64], *benchRes], []*benchRes) {
	tbl, err := New[benchRes, IntID[uint64], *benchRes]()
	if err != nil {
		b.Fatal(err)
	}
	recs := make([]*benchRes, n)
	for i := range recs {
		recs[i] = &benchRes{id: MakeIntID(uint64(i))}
		if err := tbl.Add(recs[i]); err != nil {
			b.Fatal(err)
		}
	}
	return tbl, recs
}

func BenchmarkTableGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(func(b *testing.B, n int) {
		m := make(map[uint64]*benchRes, n)
		for i := 0; i < n; i++ {
			m[uint64(i)] = &benchRes{id: MakeIntID(uint64(i))}
		}
		b.ResetTimer()
		var hit *benchRes
		for i := 0; i < b.N; i++ {
			hit = m[uint64(i&(n-1))]
		}
		b.StopTimer()
		fmt.Fprint(io.Discard, hit != nil)
	}))
	b.Run("impl=resTable", benchSizes(func(b *testing.B, n int) {
		tbl, _ := newBenchTable(b, n)
		cs := perfbench.Open(b)
		b.ResetTimer()
		var hit *benchRes
		for i := 0; i < b.N; i++ {
			hit = tbl.Lookup(MakeIntID(uint64(i & (n - 1))))
		}
		b.StopTimer()
		cs.Stop()
		fmt.Fprint(io.Discard, hit != nil)
	}))
}

func BenchmarkTableGetMiss(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(func(b *testing.B, n int) {
		m := make(map[uint64]*benchRes, n)
		for i := 0; i < n; i++ {
			m[uint64(i)] = &benchRes{id: MakeIntID(uint64(i))}
		}
		b.ResetTimer()
		var hit *benchRes
		for i := 0; i < b.N; i++ {
			hit = m[uint64(n+i&(n-1))]
		}
		b.StopTimer()
		fmt.Fprint(io.Discard, hit != nil)
	}))
	b.Run("impl=resTable", benchSizes(func(b *testing.B, n int) {
		tbl, _ := newBenchTable(b, n)
		cs := perfbench.Open(b)
		b.ResetTimer()
		var hit *benchRes
		for i := 0; i < b.N; i++ {
			hit = tbl.Lookup(MakeIntID(uint64(n + i&(n-1))))
		}
		b.StopTimer()
		cs.Stop()
		fmt.Fprint(io.Discard, hit != nil)
	}))
}

func BenchmarkTableAddGrow(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(func(b *testing.B, n int) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			m := make(map[uint64]*benchRes)
			for j := 0; j < n; j++ {
				m[uint64(j)] = &benchRes{id: MakeIntID(uint64(j))}
			}
		}
	}))
	b.Run("impl=resTable", benchSizes(func(b *testing.B, n int) {
		recs := make([]*benchRes, n)
		for i := range recs {
			recs[i] = &benchRes{id: MakeIntID(uint64(i))}
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			tbl, err := New[benchRes, IntID[uint64], *benchRes]()
			if err != nil {
				b.Fatal(err)
			}
			for _, r := range recs {
				if err := tbl.Add(r); err != nil {
					b.Fatal(err)
				}
			}
		}
	}))
}

func BenchmarkTableAddRemove(b *testing.B) {
	b.Run("impl=resTable", benchSizes(func(b *testing.B, n int) {
		tbl, recs := newBenchTable(b, n)
		cs := perfbench.Open(b)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			r := recs[i%n]
			tbl.Remove(r.id)
			if err := tbl.Add(r); err != nil {
				b.Fatal(err)
			}
		}
		b.StopTimer()
		cs.Stop()
	}))
}

func BenchmarkStringHash(b *testing.B) {
	names := make([]string, 512)
	for i := range names {
		names[i] = fmt.Sprintf("pv:rec%d.VAL", i)
	}
	b.Run("hash=pearson", func(b *testing.B) {
		var h uint
		for i := 0; i < b.N; i++ {
			h += stringHash(names[i&511])
		}
		fmt.Fprint(io.Discard, h)
	})
	b.Run("hash=xxhash", func(b *testing.B) {
		var h uint64
		for i := 0; i < b.N; i++ {
			h += xxhash.Sum64String(names[i&511])
		}
		fmt.Fprint(io.Discard, h)
	})
}
