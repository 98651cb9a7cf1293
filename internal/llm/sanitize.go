package llm

import (
	"regexp"
	"strings"
	"sync"
)

// reasoningName matches tag names that mark model reasoning: think, thinking,
// reasoning, reason, and names containing them.
const reasoningName = `[a-z0-9_:-]*(?:think|reason)[a-z0-9_:-]*`

var (
	reasoningOpen = regexp.MustCompile(`(?i)<(` + reasoningName + `)(?:\s[^>]*)?>`)
	reasoningTag  = regexp.MustCompile(`(?i)</?` + reasoningName + `(?:\s[^>]*)?/?>`)
	blankRun      = regexp.MustCompile(`\n{3,}`)
)

// Sanitize removes reasoning markup from a model answer. Balanced blocks are
// removed with their content, leftover opening or closing tags are removed on
// their own. Each line is then trimmed and runs of blank lines collapse to one.
func Sanitize(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = stripBalanced(s)
	s = reasoningTag.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// tagPatterns caches, per lowercased tag name, a pattern matching that name's
// opening and closing tags. Group 1 is "/" on a closing tag.
var tagPatterns sync.Map

func tagPattern(name string) *regexp.Regexp {
	key := strings.ToLower(name)
	if re, ok := tagPatterns.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)<(/?)` + regexp.QuoteMeta(key) + `(?:\s[^>]*)?>`)
	actual, _ := tagPatterns.LoadOrStore(key, re)
	return actual.(*regexp.Regexp)
}

// stripBalanced removes each reasoning block from its opening tag to the
// matching closing tag of the same name, counting nested tags of that name.
// An opening tag that is never closed is skipped.
func stripBalanced(s string) string {
	from := 0
	for from < len(s) {
		loc := reasoningOpen.FindStringSubmatchIndex(s[from:])
		if loc == nil {
			break
		}
		start, end := from+loc[0], from+loc[1]
		name := s[from+loc[2] : from+loc[3]]
		stop := matchingClose(s[end:], tagPattern(name))
		if stop < 0 {
			from = end
			continue
		}
		s = s[:start] + s[end+stop:]
		from = start
	}
	return s
}

// matchingClose returns the offset just past the closing tag that balances an
// already consumed opening tag, or -1.
func matchingClose(s string, tags *regexp.Regexp) int {
	depth := 1
	for _, m := range tags.FindAllStringSubmatchIndex(s, -1) {
		if m[3] > m[2] {
			depth--
		} else {
			depth++
		}
		if depth == 0 {
			return m[1]
		}
	}
	return -1
}
