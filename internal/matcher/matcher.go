// Package matcher implements fast multi-token term matching over text and
// token streams. A Matcher holds a trie of lowercased term token sequences;
// scanning streams input tokens through a frontier of in-progress candidate
// matches, reporting every occurrence including overlapping and nested ones.
package matcher

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/annotext/annotation-platform/pkg/errors"
)

// OffsetPosition is a matched span. In character mode Start is the rune
// offset of the match's first token and End is the rune offset just past its
// last token; in token-index mode Start and End are both inclusive indices
// into the input token slice.
type OffsetPosition struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// LabeledToken pairs a token with an auxiliary annotation label. Labels
// never affect matching.
type LabeledToken struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

// Matcher identifies occurrences of loaded multi-token terms. Loading must
// complete before the first Match call; the trie is read-only afterwards, so
// a single Matcher may serve any number of concurrent Match calls. To add
// terms after matching has started, load into a Clone and switch readers to
// the clone.
type Matcher struct {
	root  *trieNode
	terms int
}

// New returns an empty Matcher.
func New() *Matcher {
	return &Matcher{root: newTrieNode()}
}

// TermCount returns the number of terms loaded so far, counting duplicates.
func (m *Matcher) TermCount() int {
	return m.terms
}

// Clone returns an independent deep copy of the Matcher. Loading terms into
// the clone does not affect the original, which lets callers extend a live
// Matcher copy-on-write style while readers keep using the original.
func (m *Matcher) Clone() *Matcher {
	return &Matcher{root: m.root.clone(), terms: m.terms}
}

// LoadTerm tokenizes and inserts a single term. It returns 1 if a non-blank
// term was inserted and 0 otherwise.
func (m *Matcher) LoadTerm(term string) int {
	if strings.TrimSpace(term) == "" {
		return 0
	}
	if !m.root.insert(wordTokens(strings.ToLower(term))) {
		return 0
	}
	m.terms++
	return 1
}

// LoadTerms reads newline-delimited terms from r, one term per line,
// skipping blank lines, and returns the number of terms inserted. Terms read
// before a mid-stream failure stay loaded; the load is not transactional.
func (m *Matcher) LoadTerms(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		count += m.LoadTerm(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("%w: %v", apperrors.ErrDictionaryRead, err)
	}
	return count, nil
}

// LoadTermsFile loads terms from a newline-delimited file on disk.
func (m *Matcher) LoadTermsFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", apperrors.ErrDictionaryNotFound, path, err)
	}
	defer f.Close()
	return m.LoadTerms(f)
}

// Match scans raw text and returns character-offset spans for every loaded
// term found. Delimiter characters advance the position by one each; markup
// tokens advance it by their width but can never start or extend a match,
// keeping offsets aligned with the original text.
func (m *Matcher) Match(text string) []OffsetPosition {
	toks := tokenize(text)
	units := make([]scanUnit, len(toks))
	for i, t := range toks {
		if t.kind == unitWord {
			units[i] = scanUnit{token: t.text, width: t.width, endOffset: t.width}
		} else {
			units[i] = scanUnit{width: t.width}
		}
	}
	return m.scan(units)
}

// MatchTokens scans an already-tokenized input and returns token-index
// spans (Start and End inclusive). Every element advances the index by one;
// elements that are delimiters or markup never match.
func (m *Matcher) MatchTokens(tokens []string) []OffsetPosition {
	units := make([]scanUnit, len(tokens))
	for i, tok := range tokens {
		units[i] = tokenScanUnit(tok)
	}
	return m.scan(units)
}

// MatchLabeledTokens behaves like MatchTokens on the Token half of each
// pair, ignoring labels. Used for training-style input that carries
// annotations which must not affect matching.
func (m *Matcher) MatchLabeledTokens(tokens []LabeledToken) []OffsetPosition {
	units := make([]scanUnit, len(tokens))
	for i, lt := range tokens {
		units[i] = tokenScanUnit(lt.Token)
	}
	return m.scan(units)
}

// MatchTokensAsText rebuilds a text from tokens (one leading space per
// token, each token cut at its first space or tab, the literal "@newline"
// marker contributing nothing) and delegates to Match. Offsets are in the
// reconstructed text's character coordinates, not token indices. The
// reconstruction is lossy; callers needing token indices must use
// MatchTokens.
func (m *Matcher) MatchTokensAsText(tokens []string) []OffsetPosition {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(reconstructToken(tok))
	}
	return m.Match(b.String())
}

// tokenScanUnit classifies one pre-tokenized element for token-index
// scanning.
func tokenScanUnit(tok string) scanUnit {
	if strings.Contains(delimiters, tok) {
		return scanUnit{width: 1}
	}
	if len(tok) >= 2 && tok[0] == '<' && tok[len(tok)-1] == '>' {
		return scanUnit{width: 1}
	}
	return scanUnit{token: strings.ToLower(tok), width: 1}
}

func reconstructToken(tok string) string {
	if strings.TrimSpace(tok) == "@newline" {
		return ""
	}
	ind := strings.Index(tok, " ")
	if ind == -1 {
		ind = strings.Index(tok, "\t")
	}
	if ind == -1 {
		return " " + tok
	}
	return " " + tok[:ind]
}
