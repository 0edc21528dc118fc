// Package benchmark contains Go benchmarks for the term matcher, measuring
// load throughput, scan latency over growing dictionaries, and allocation
// behaviour of the tokenizer.
package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/annotext/annotation-platform/internal/matcher"
)

func buildMatcher(terms int) *matcher.Matcher {
	m := matcher.New()
	for i := 0; i < terms; i++ {
		m.LoadTerm(fmt.Sprintf("city %d", i))
		m.LoadTerm(fmt.Sprintf("borough-%d district", i))
	}
	m.LoadTerm("the bronx")
	m.LoadTerm("new york city")
	return m
}

func buildText(sentences int) string {
	var sb strings.Builder
	for i := 0; i < sentences; i++ {
		sb.WriteString("Patrice moved from the Bronx to New York City in 2009, via city ")
		sb.WriteString(fmt.Sprintf("%d. ", i%50))
	}
	return sb.String()
}

// BenchmarkLoadTerm measures per-term insert throughput into the trie.
func BenchmarkLoadTerm(b *testing.B) {
	m := matcher.New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.LoadTerm(fmt.Sprintf("term number %d", i))
	}
}

// BenchmarkMatch measures scan latency over dictionaries of growing size.
// The text is fixed so the numbers isolate dictionary size effects.
func BenchmarkMatch(b *testing.B) {
	text := buildText(100)
	for _, terms := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("terms-%d", terms), func(b *testing.B) {
			m := buildMatcher(terms)
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				matches := m.Match(text)
				_ = matches
			}
		})
	}
}

// BenchmarkMatchTokens measures the pre-tokenized path, which skips the
// tokenizer entirely.
func BenchmarkMatchTokens(b *testing.B) {
	m := buildMatcher(1000)
	tokens := strings.Fields(buildText(100))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		matches := m.MatchTokens(tokens)
		_ = matches
	}
}

// BenchmarkMatchParallel measures concurrent read throughput; a loaded
// matcher is safe for concurrent matching.
func BenchmarkMatchParallel(b *testing.B) {
	m := buildMatcher(1000)
	text := buildText(20)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			matches := m.Match(text)
			_ = matches
		}
	})
}
