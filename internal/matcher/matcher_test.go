package matcher

import (
	"errors"
	"io"
	"strings"
	"testing"

	apperrors "github.com/annotext/annotation-platform/pkg/errors"
)

func newMatcherWith(t *testing.T, terms ...string) *Matcher {
	t.Helper()
	m := New()
	for _, term := range terms {
		if n := m.LoadTerm(term); n != 1 {
			t.Fatalf("LoadTerm(%q) = %d, want 1", term, n)
		}
	}
	return m
}

func assertMatches(t *testing.T, got []OffsetPosition, want []OffsetPosition) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d matches %v, want %d matches %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMatchSingleTerm(t *testing.T) {
	m := newMatcherWith(t, "bronx")
	assertMatches(t, m.Match("bronx"), []OffsetPosition{{Start: 0, End: 5}})
}

func TestMatchCharOffsets(t *testing.T) {
	m := newMatcherWith(t, "the bronx")
	// "I live in the Bronx": "the" starts at 10, "Bronx" ends past 19.
	assertMatches(t, m.Match("I live in the Bronx"), []OffsetPosition{{Start: 10, End: 19}})
}

func TestMatchCaseInsensitive(t *testing.T) {
	m := newMatcherWith(t, "BRONX")
	lower := m.Match("the bronx")
	mixed := m.Match("The BRONX")
	assertMatches(t, lower, []OffsetPosition{{Start: 4, End: 9}})
	assertMatches(t, mixed, lower)
}

func TestMatchOverlappingTerms(t *testing.T) {
	m := newMatcherWith(t, "the bronx", "bronx")
	got := m.Match("I live in the Bronx")
	assertMatches(t, got, []OffsetPosition{
		{Start: 10, End: 19},
		{Start: 14, End: 19},
	})
}

func TestMatchPrefixAndExtension(t *testing.T) {
	m := newMatcherWith(t, "new", "new york")
	got := m.Match("new york city")
	assertMatches(t, got, []OffsetPosition{
		{Start: 0, End: 3},
		{Start: 0, End: 8},
	})
}

func TestMatchMarkupSkipped(t *testing.T) {
	m := newMatcherWith(t, "bronx")
	// "<tag>" and "</tag>" consume width but can never match.
	assertMatches(t, m.Match("<tag>bronx</tag>"), []OffsetPosition{{Start: 5, End: 10}})
}

func TestMatchDelimitersDoNotBreakTerms(t *testing.T) {
	m := newMatcherWith(t, "new york")
	assertMatches(t, m.Match("New-York"), []OffsetPosition{{Start: 0, End: 8}})
}

func TestMatchEmptyInputs(t *testing.T) {
	m := newMatcherWith(t, "bronx")
	if got := m.Match(""); len(got) != 0 {
		t.Errorf("Match(\"\") = %v, want empty", got)
	}
	if got := m.MatchTokens(nil); len(got) != 0 {
		t.Errorf("MatchTokens(nil) = %v, want empty", got)
	}
	if got := m.MatchLabeledTokens(nil); len(got) != 0 {
		t.Errorf("MatchLabeledTokens(nil) = %v, want empty", got)
	}
}

func TestMatchNoTermsLoaded(t *testing.T) {
	m := New()
	if got := m.Match("the bronx is in new york"); len(got) != 0 {
		t.Errorf("Match with empty trie = %v, want empty", got)
	}
}

func TestMatchTokensIndices(t *testing.T) {
	m := newMatcherWith(t, "the bronx", "bronx")
	got := m.MatchTokens([]string{"I", "live", "in", "the", "Bronx"})
	assertMatches(t, got, []OffsetPosition{
		{Start: 3, End: 4},
		{Start: 4, End: 4},
	})
}

func TestMatchTokensSkipsDelimitersAndMarkup(t *testing.T) {
	m := newMatcherWith(t, "the bronx")
	got := m.MatchTokens([]string{"<p>", "the", ",", "Bronx"})
	assertMatches(t, got, []OffsetPosition{{Start: 1, End: 3}})
}

func TestMatchLabeledTokensIgnoresLabels(t *testing.T) {
	m := newMatcherWith(t, "the bronx")
	got := m.MatchLabeledTokens([]LabeledToken{
		{Token: "the", Label: "B-LOC"},
		{Token: "Bronx", Label: "I-LOC"},
	})
	assertMatches(t, got, []OffsetPosition{{Start: 0, End: 1}})
}

func TestMatchTokensAsText(t *testing.T) {
	m := newMatcherWith(t, "the bronx")
	// Reconstructed text is " the Bronx"; offsets are in its coordinates.
	got := m.MatchTokensAsText([]string{"the", "Bronx"})
	assertMatches(t, got, []OffsetPosition{{Start: 1, End: 10}})
}

func TestMatchTokensAsTextNewlineMarker(t *testing.T) {
	m := newMatcherWith(t, "bronx")
	got := m.MatchTokensAsText([]string{"@newline", "bronx"})
	assertMatches(t, got, []OffsetPosition{{Start: 1, End: 6}})
}

func TestMatchTokensAsTextCutsAtWhitespace(t *testing.T) {
	m := newMatcherWith(t, "bronx")
	got := m.MatchTokensAsText([]string{"Bronx zoo"})
	assertMatches(t, got, []OffsetPosition{{Start: 1, End: 6}})
}

func TestLoadTermsCountsAndIdempotence(t *testing.T) {
	m := New()
	count, err := m.LoadTerms(strings.NewReader("bronx\nbronx\n"))
	if err != nil {
		t.Fatalf("LoadTerms: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2 (duplicates counted)", count)
	}
	assertMatches(t, m.Match("bronx"), []OffsetPosition{{Start: 0, End: 5}})
}

func TestLoadTermsSkipsBlankLines(t *testing.T) {
	m := New()
	count, err := m.LoadTerms(strings.NewReader("\n  \t \nbronx\n\n"))
	if err != nil {
		t.Fatalf("LoadTerms: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestLoadTermsFileMissing(t *testing.T) {
	m := New()
	_, err := m.LoadTermsFile("testdata/does-not-exist.txt")
	if !errors.Is(err, apperrors.ErrDictionaryNotFound) {
		t.Errorf("err = %v, want ErrDictionaryNotFound", err)
	}
}

// failingReader yields its data once, then a read error.
type failingReader struct {
	data []byte
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.ErrUnexpectedEOF
	}
	r.done = true
	return copy(p, r.data), nil
}

func TestLoadTermsReadErrorKeepsPartialLoad(t *testing.T) {
	m := New()
	count, err := m.LoadTerms(&failingReader{data: []byte("alpha\n")})
	if !errors.Is(err, apperrors.ErrDictionaryRead) {
		t.Fatalf("err = %v, want ErrDictionaryRead", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 (terms before the failure stay loaded)", count)
	}
	assertMatches(t, m.Match("alpha"), []OffsetPosition{{Start: 0, End: 5}})
}

func TestConcurrentMatching(t *testing.T) {
	m := newMatcherWith(t, "the bronx", "bronx", "new york")
	text := "the Bronx is not in New York"
	want := m.Match(text)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				got := m.Match(text)
				if len(got) != len(want) {
					t.Errorf("concurrent Match returned %d matches, want %d", len(got), len(want))
					return
				}
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
