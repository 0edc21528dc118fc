package matcher

import "strings"

// delimiters is the fixed set of characters that separate tokens: whitespace
// plus the punctuation characters term dictionaries are split on.
const delimiters = " \n\t([ •*,:;?.!/)-−–‐«»„\"“”‘’'`$]*♦♥♣♠ "

type unitKind int

const (
	unitWord unitKind = iota
	unitDelimiter
	unitMarkup
)

// unit is one tokenizer output: a lowercased word, a single delimiter
// character, or a markup token such as "<lb/>". Width is measured in runes
// so positions derived from units line up with the original text.
type unit struct {
	text  string
	kind  unitKind
	width int
}

func isDelimiter(r rune) bool {
	return strings.ContainsRune(delimiters, r)
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

// tokenize splits text into word, delimiter, and markup units. Every
// delimiter character is its own unit. A markup unit starts at '<' and runs
// to the first '>', stopping early at whitespace; a run with no closing '>'
// is an ordinary word. Words are lowercased here so matching never needs to
// case-fold again.
func tokenize(text string) []unit {
	runes := []rune(text)
	units := make([]unit, 0, len(runes)/4)
	i := 0
	for i < len(runes) {
		switch r := runes[i]; {
		case isDelimiter(r):
			units = append(units, unit{text: string(r), kind: unitDelimiter, width: 1})
			i++
		case r == '<':
			j := i + 1
			for j < len(runes) && !isWhitespace(runes[j]) && runes[j] != '>' {
				j++
			}
			if j < len(runes) && runes[j] == '>' {
				j++
				units = append(units, unit{text: string(runes[i:j]), kind: unitMarkup, width: j - i})
			} else {
				units = append(units, unit{text: strings.ToLower(string(runes[i:j])), kind: unitWord, width: j - i})
			}
			i = j
		default:
			j := i
			for j < len(runes) && !isDelimiter(runes[j]) && runes[j] != '<' {
				j++
			}
			units = append(units, unit{text: strings.ToLower(string(runes[i:j])), kind: unitWord, width: j - i})
			i = j
		}
	}
	return units
}

// wordTokens returns only the lowercased word tokens of text, in order.
// Used when inserting dictionary terms, where positions do not matter.
func wordTokens(text string) []string {
	var tokens []string
	for _, u := range tokenize(text) {
		if u.kind == unitWord {
			tokens = append(tokens, u.text)
		}
	}
	return tokens
}
