// Package extract pulls math spans out of markup text and splices rendered
// fragments back into the HTML produced from it.
//
// Every extracted span is replaced by a marker built from the span's own
// delimiters around a nonce, a class letter and the span's zero-based index,
// so with nonce "qzkx" the text "$x^2$" becomes "$qzkxi0$" and "$$E=mc^2$$"
// becomes "$$qzkxd0$$". The nonce is drawn per extraction and never occurs in
// the source, so no literal text, escaped dollars included, can pass for a
// marker. Display spans are extracted before inline spans, and the inline rule
// only ever sees text that lies outside display spans.
package extract

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rule describes one class of math span.
//
// Pattern must capture the expression body in group 1. Go regular
// expressions have no look-around, so the characters that may not touch a
// span from the outside are listed separately and checked on the runes
// adjacent to each candidate match.
type Rule struct {
	Pattern       string
	NotPrecededBy string
	NotFollowedBy string
}

// DisplayRule matches $$...$$ spans.
var DisplayRule = Rule{
	Pattern:       `\$\$([^$]+?)\$\$`,
	NotPrecededBy: `$\`,
	NotFollowedBy: `$`,
}

// InlineRule matches $...$ spans whose body neither starts nor ends with
// whitespace. A closing delimiter followed by a digit does not count, so
// amounts such as "$5 and $6" or "$5$10" stay text.
var InlineRule = Rule{
	Pattern:       `\$([^\s$](?:[^$]*?[^\s$])?)\$`,
	NotPrecededBy: `$\`,
	NotFollowedBy: `$0123456789`,
}

// Marker class letters, written between the nonce and the index.
const (
	classInline  = 'i'
	classDisplay = 'd'
)

const (
	nonceLetters = "abcdefghijklmnopqrstuvwxyz"
	nonceLength  = 10
)

// Table holds extracted expressions in first-occurrence order. Entries are
// overwritten in place once rendered.
type Table struct {
	Inline  []string
	Display []string

	// Nonce tags every marker of the extraction that built the table.
	Nonce string

	inlineMarkers  []string
	displayMarkers []string
}

// Len returns the total number of expressions.
func (t *Table) Len() int {
	return len(t.Inline) + len(t.Display)
}

func (t *Table) add(m span, class byte) string {
	entries, markers := &t.Inline, &t.inlineMarkers
	if class == classDisplay {
		entries, markers = &t.Display, &t.displayMarkers
	}
	marker := m.prefix + t.Nonce + string(class) + strconv.Itoa(len(*entries)) + m.suffix
	*entries = append(*entries, m.body)
	*markers = append(*markers, marker)
	return marker
}

// Extractor extracts and reinserts math spans. It holds no per-call state and
// is safe for concurrent use.
type Extractor struct {
	inline  *rule
	display *rule
}

// New compiles the inline and display rules.
func New(inline, display Rule) (*Extractor, error) {
	in, err := compile(inline)
	if err != nil {
		return nil, fmt.Errorf("inline rule: %w", err)
	}
	disp, err := compile(display)
	if err != nil {
		return nil, fmt.Errorf("display rule: %w", err)
	}
	return &Extractor{inline: in, display: disp}, nil
}

// Default returns an Extractor using InlineRule and DisplayRule.
func Default() *Extractor {
	e, err := New(InlineRule, DisplayRule)
	if err != nil {
		panic(err)
	}
	return e
}

// Extract replaces every math span in markup with a marker and returns the
// rewritten text with the table of expressions. Markup without math comes
// back unchanged with an empty table.
func (e *Extractor) Extract(markup string) (string, *Table) {
	t := &Table{Nonce: newNonce(markup)}
	var b strings.Builder
	b.Grow(len(markup))

	write := func(s string) { b.WriteString(s) }
	e.display.scan(markup,
		func(text string) {
			e.inline.scan(text, write, func(m span) {
				b.WriteString(t.add(m, classInline))
			})
		},
		func(m span) {
			b.WriteString(t.add(m, classDisplay))
		},
	)
	return b.String(), t
}

// Reinsert replaces every marker in html with its table entry in a single
// pass, so rendered math that happens to contain dollar signs or markers is
// never rescanned. Text that only carries the nonce, such as a heading id
// derived from a marker, is left alone.
//
// A delimited marker whose index has no table entry means extraction and
// reinsertion went out of sync; Reinsert panics in that case. Table entries
// whose marker no longer appears in html are ignored.
func (e *Extractor) Reinsert(html string, t *Table) string {
	if t.Nonce == "" || !strings.Contains(html, t.Nonce) {
		return html
	}

	var b strings.Builder
	b.Grow(len(html))

	cursor := 0
	for {
		i := strings.Index(html[cursor:], t.Nonce)
		if i < 0 {
			break
		}
		at := cursor + i
		start, end, fragment, ok := t.markerAt(html, at)
		if !ok || start < cursor {
			b.WriteString(html[cursor : at+len(t.Nonce)])
			cursor = at + len(t.Nonce)
			continue
		}
		b.WriteString(html[cursor:start])
		b.WriteString(fragment)
		cursor = end
	}
	b.WriteString(html[cursor:])
	return b.String()
}

// markerAt resolves the marker whose nonce starts at html[at]. It reports
// false when the text around the nonce is not a complete marker.
func (t *Table) markerAt(html string, at int) (start, end int, fragment string, ok bool) {
	rest := html[at+len(t.Nonce):]
	if rest == "" {
		return 0, 0, "", false
	}

	var entries, markers []string
	var class string
	switch rest[0] {
	case classInline:
		entries, markers, class = t.Inline, t.inlineMarkers, "inline"
	case classDisplay:
		entries, markers, class = t.Display, t.displayMarkers, "display"
	default:
		return 0, 0, "", false
	}

	digits := leadingDigits(rest[1:])
	if digits == "" {
		return 0, 0, "", false
	}
	index, err := strconv.Atoi(digits)
	if err != nil || index >= len(entries) || index >= len(markers) {
		if t.delimited(html, at, markers, 1+len(digits)) {
			panic(fmt.Sprintf("extract: %s marker %q has no table entry (%d entries)",
				class, t.Nonce+rest[:1+len(digits)], len(entries)))
		}
		return 0, 0, "", false
	}

	marker := markers[index]
	start = at - strings.Index(marker, t.Nonce)
	if start < 0 || !strings.HasPrefix(html[start:], marker) {
		return 0, 0, "", false
	}
	return start, start + len(marker), entries[index], true
}

// delimited reports whether the nonce at html[at], followed by tail bytes of
// class and index, sits between the delimiters its class uses. A class with
// no markers has no delimiters to compare, so any occurrence counts.
func (t *Table) delimited(html string, at int, markers []string, tail int) bool {
	if len(markers) == 0 {
		return true
	}
	ref := markers[0]
	off := strings.Index(ref, t.Nonce)
	prefix := ref[:off]
	suffix := ref[off+len(t.Nonce)+1+len(leadingDigits(ref[off+len(t.Nonce)+1:])):]
	return strings.HasSuffix(html[:at], prefix) && strings.HasPrefix(html[at+len(t.Nonce)+tail:], suffix)
}

func leadingDigits(s string) string {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return s[:n]
}

// newNonce returns random letters that do not occur in src.
func newNonce(src string) string {
	var b [nonceLength]byte
	for {
		for i := range b {
			b[i] = nonceLetters[rand.IntN(len(nonceLetters))] // #nosec G404 -- uniqueness, not secrecy
		}
		if n := string(b[:]); !strings.Contains(src, n) {
			return n
		}
	}
}

type rule struct {
	re     *regexp.Regexp
	before string
	after  string
}

func compile(r Rule) (*rule, error) {
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("pattern %q has no capture group", r.Pattern)
	}
	return &rule{re: re, before: r.NotPrecededBy, after: r.NotFollowedBy}, nil
}

// span is one accepted match split around its body.
type span struct {
	prefix string
	body   string
	suffix string
}

// scan walks s left to right. Text between accepted matches goes to text,
// accepted matches go to match. After a match the cursor moves past its
// closing delimiter.
func (r *rule) scan(s string, text func(string), match func(span)) {
	cursor := 0
	for cursor < len(s) {
		loc := r.next(s, cursor)
		if loc == nil {
			break
		}
		if loc[0] > cursor {
			text(s[cursor:loc[0]])
		}
		match(span{
			prefix: s[loc[0]:loc[2]],
			body:   s[loc[2]:loc[3]],
			suffix: s[loc[3]:loc[1]],
		})
		cursor = loc[1]
	}
	if cursor < len(s) {
		text(s[cursor:])
	}
}

// next finds the first accepted match at or after from. The returned
// indices are relative to s. A rejected candidate is retried one rune after
// its start.
func (r *rule) next(s string, from int) []int {
	for from < len(s) {
		loc := r.re.FindStringSubmatchIndex(s[from:])
		if loc == nil {
			return nil
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += from
			}
		}
		if loc[2] >= 0 && loc[1] > loc[0] && r.accepts(s, loc[0], loc[1]) {
			return loc[:4]
		}
		_, size := utf8.DecodeRuneInString(s[loc[0]:])
		from = loc[0] + max(size, 1)
	}
	return nil
}

func (r *rule) accepts(s string, start, end int) bool {
	if start > 0 && r.before != "" {
		prev, _ := utf8.DecodeLastRuneInString(s[:start])
		if strings.ContainsRune(r.before, prev) {
			return false
		}
	}
	if end < len(s) && r.after != "" {
		next, _ := utf8.DecodeRuneInString(s[end:])
		if strings.ContainsRune(r.after, next) {
			return false
		}
	}
	return true
}
