package matcher

import (
	"reflect"
	"testing"
)

func TestTokenizeWordsAndDelimiters(t *testing.T) {
	got := tokenize("New York,NY")
	want := []unit{
		{text: "new", kind: unitWord, width: 3},
		{text: " ", kind: unitDelimiter, width: 1},
		{text: "york", kind: unitWord, width: 4},
		{text: ",", kind: unitDelimiter, width: 1},
		{text: "ny", kind: unitWord, width: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize = %+v, want %+v", got, want)
	}
}

func TestTokenizeMarkup(t *testing.T) {
	got := tokenize("<tag>bronx</tag>")
	want := []unit{
		{text: "<tag>", kind: unitMarkup, width: 5},
		{text: "bronx", kind: unitWord, width: 5},
		{text: "</tag>", kind: unitMarkup, width: 6},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize = %+v, want %+v", got, want)
	}
}

func TestTokenizeUnclosedAngleBracketIsWord(t *testing.T) {
	got := tokenize("a <b c")
	want := []unit{
		{text: "a", kind: unitWord, width: 1},
		{text: " ", kind: unitDelimiter, width: 1},
		{text: "<b", kind: unitWord, width: 2},
		{text: " ", kind: unitDelimiter, width: 1},
		{text: "c", kind: unitWord, width: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize = %+v, want %+v", got, want)
	}
}

func TestTokenizeWidthsAreRuneCounts(t *testing.T) {
	units := tokenize("café au lait")
	if units[0].width != 4 {
		t.Errorf("width of %q = %d, want 4", units[0].text, units[0].width)
	}
	total := 0
	for _, u := range units {
		total += u.width
	}
	if total != 12 {
		t.Errorf("total width = %d, want 12 (rune count of input)", total)
	}
}

func TestWordTokensDropsDelimitersAndMarkup(t *testing.T) {
	got := wordTokens("The <lb/> Bronx, NY")
	want := []string{"the", "bronx", "ny"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("wordTokens = %v, want %v", got, want)
	}
}
