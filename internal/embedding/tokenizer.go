package embedding

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenRunes is the shortest token kept; shorter ones carry no signal.
const minTokenRunes = 3

// stopWords is the English and French set dropped before hashing.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the and for are but not you all any can had her was one our out has have
		him his how its may new now old see two who did get from that this with
		what when where which while will would there their they them then than
		been being into onto about after before over under also just like more
		most some such only other were your yours does doing each very should
		could shall these those here why because between through during
		les des une est pas que qui dans pour par sur avec son ses aux mais
		ont sont cette ces nous vous ils elles leur leurs elle lui entre comme
		tout tous toute toutes plus moins tres sans sous chez donc ainsi etre
		avoir fait faire peut quand alors aussi deja encore notre votre mon ton
	`) {
		stopWords[w] = struct{}{}
	}
}

// Normalize lowercases text, strips diacritics, and replaces punctuation and
// symbols with spaces.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		stripped = lowered
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, stripped)
}

// Tokenize returns the normalized tokens of text that survive the length and
// stop-word filters, in order.
func Tokenize(text string) []string {
	var tokens []string
	for _, tok := range strings.Fields(Normalize(text)) {
		if utf8.RuneCountInString(tok) < minTokenRunes {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// HashToken is the 31-multiplier string hash over UTF-16 code units with
// signed 32-bit wraparound.
func HashToken(tok string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(tok)) {
		h = 31*h + int32(u)
	}
	return h
}

// bucket maps a hash onto [0, dim). The absolute value is taken in int64 so
// math.MinInt32 does not overflow.
func bucket(h int32, dim int) int {
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % int64(dim))
}
