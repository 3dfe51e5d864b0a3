// Package htmlutil holds the HTML scanning and rewriting helpers used after
// markup rendering.
package htmlutil

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// CodeBlock is a <pre><code class="language-x"> element found in HTML.
// Start and End are byte offsets of the whole <pre> element.
type CodeBlock struct {
	Start    int
	End      int
	Language string
	Code     string // unescaped text content
}

// FindCodeBlocks returns the fenced code blocks of src that carry a language
// class, in document order. Blocks whose <code> holds markup rather than
// plain text (already highlighted, for example) are skipped.
func FindCodeBlocks(src string) []CodeBlock {
	const (
		outside = iota
		inPre
		inCode
		afterCode
	)

	var (
		blocks []CodeBlock
		cur    CodeBlock
		code   strings.Builder
		state  = outside
		offset int
	)

	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return blocks
			}
			break
		}
		raw := len(z.Raw())
		tok := z.Token()

		switch state {
		case outside:
			if tt == html.StartTagToken && tok.Data == "pre" {
				cur = CodeBlock{Start: offset}
				state = inPre
			}
		case inPre:
			state = outside
			if tt == html.StartTagToken && tok.Data == "code" {
				if lang := language(tok); lang != "" {
					cur.Language = lang
					code.Reset()
					state = inCode
				}
			}
		case inCode:
			switch {
			case tt == html.TextToken:
				code.WriteString(tok.Data)
			case tt == html.EndTagToken && tok.Data == "code":
				state = afterCode
			default:
				state = outside
			}
		case afterCode:
			state = outside
			if tt == html.EndTagToken && tok.Data == "pre" {
				cur.End = offset + raw
				cur.Code = code.String()
				blocks = append(blocks, cur)
			}
		}

		offset += raw
	}
	return blocks
}

// ReplaceCodeBlocks calls fn for every block FindCodeBlocks reports and
// splices its result in place of the block. Everything else in src is kept
// byte for byte. The first error from fn aborts the replacement.
func ReplaceCodeBlocks(src string, fn func(CodeBlock) (string, error)) (string, error) {
	blocks := FindCodeBlocks(src)
	if len(blocks) == 0 {
		return src, nil
	}

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, blk := range blocks {
		out, err := fn(blk)
		if err != nil {
			return "", err
		}
		b.WriteString(src[last:blk.Start])
		b.WriteString(out)
		last = blk.End
	}
	b.WriteString(src[last:])
	return b.String(), nil
}

// language extracts x from a "language-x" class.
func language(tok html.Token) string {
	for _, attr := range tok.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok && lang != "" {
				return lang
			}
		}
	}
	return ""
}
