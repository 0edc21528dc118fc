package matcher

// scanUnit is one step of the scan: token is the lowercased word to match
// (empty for units that only advance position), width is how far the
// position counter advances, and endOffset is added to a unit's start
// position to produce a match end: the token's rune width in character
// mode, zero in token-index mode.
type scanUnit struct {
	token     string
	width     int
	endOffset int
}

// candidate is an in-progress match: a trie position plus the span matched
// so far. Candidates borrow trie nodes; the trie outlives every scan.
type candidate struct {
	node  *trieNode
	start int
	last  int
}

// scan streams units through a frontier of active candidates. For each word
// unit it first closes any candidate whose node is terminal (a term ended at
// the previous token), then extends surviving candidates and opens a fresh
// candidate from the root. Termination and continuation are independent
// outcomes of the same candidate, so a term that is a prefix of a longer
// term is reported alongside it, and a fresh candidate is opened even when
// others already cover the token, so suffix terms are reported too. After
// the last unit, surviving terminal candidates are flushed.
func (m *Matcher) scan(units []scanUnit) []OffsetPosition {
	var results []OffsetPosition
	var frontier []candidate
	pos := 0
	for _, u := range units {
		if u.token == "" {
			pos += u.width
			continue
		}
		next := make([]candidate, 0, len(frontier)+1)
		for _, c := range frontier {
			if child := c.node.child(u.token); child != nil {
				next = append(next, candidate{node: child, start: c.start, last: pos + u.endOffset})
			}
			if c.node.terminal {
				results = append(results, OffsetPosition{Start: c.start, End: c.last})
			}
		}
		if child := m.root.child(u.token); child != nil {
			next = append(next, candidate{node: child, start: pos, last: pos + u.endOffset})
		}
		frontier = next
		pos += u.width
	}
	for _, c := range frontier {
		if c.node.terminal {
			results = append(results, OffsetPosition{Start: c.start, End: c.last})
		}
	}
	return results
}
