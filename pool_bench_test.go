//go:build bench

package md2html

import (
	"fmt"
	"runtime"
	"testing"
)

// BenchmarkParserPoolAcquireRelease benchmarks the acquire/release cycle on a
// warm pool.
func BenchmarkParserPoolAcquireRelease(b *testing.B) {
	for _, size := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			pool := NewParserPool(size, nil)
			parsers := make([]*Parser, size)
			for i := range parsers {
				parsers[i], _ = pool.Acquire()
			}
			for _, p := range parsers {
				pool.Release(p)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				p, _ := pool.Acquire()
				pool.Release(p)
			}

			b.StopTimer()
			pool.Close()
		})
	}
}

// BenchmarkParserPoolParallelRender benchmarks snippet rendering through the
// pool from parallel goroutines.
func BenchmarkParserPoolParallelRender(b *testing.B) {
	pool := NewParserPool(runtime.GOMAXPROCS(0), nil)
	defer pool.Close()

	const doc = "# Heading\n\nSome *text* with $x^2 + y^2 = z^2$ and\n\n$$\\sum_{i=0}^n i$$\n"

	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p, err := pool.Acquire()
			if err != nil {
				b.Fatal(err)
			}
			if _, err := p.RenderSnippet(doc); err != nil {
				b.Fatal(err)
			}
			pool.Release(p)
		}
	})
}
