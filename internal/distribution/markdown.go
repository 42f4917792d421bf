package distribution

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	linkRe   = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	boldRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*]+)\*`)
)

// MarkdownToHTML converts the composed report into a simple HTML email body.
// It covers the structures the summary composer produces: headings, bullet
// lists, links, bold and italics, and paragraphs. It is not a general
// Markdown renderer.
func MarkdownToHTML(md string) string {
	var sb strings.Builder
	sb.WriteString("<html><body>\n")

	inList := false
	closeList := func() {
		if inList {
			sb.WriteString("</ul>\n")
			inList = false
		}
	}

	var paragraph []string
	flushParagraph := func() {
		if len(paragraph) > 0 {
			sb.WriteString("<p>" + inline(strings.Join(paragraph, " ")) + "</p>\n")
			paragraph = nil
		}
	}

	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flushParagraph()
			closeList()
		case strings.HasPrefix(trimmed, "#"):
			flushParagraph()
			closeList()
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' && level < 6 {
				level++
			}
			text := strings.TrimSpace(trimmed[level:])
			fmt.Fprintf(&sb, "<h%d>%s</h%d>\n", level, inline(text), level)
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flushParagraph()
			if !inList {
				sb.WriteString("<ul>\n")
				inList = true
			}
			sb.WriteString("<li>" + inline(strings.TrimSpace(trimmed[2:])) + "</li>\n")
		default:
			closeList()
			paragraph = append(paragraph, trimmed)
		}
	}
	flushParagraph()
	closeList()

	sb.WriteString("</body></html>")
	return sb.String()
}

// inline escapes text and applies link, bold, and italic spans.
func inline(s string) string {
	s = html.EscapeString(s)
	s = linkRe.ReplaceAllString(s, `<a href="$2">$1</a>`)
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	return s
}
