package database

import (
	"encoding/base64"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Article bodies are persisted base64-encoded so embedded control characters
// from arbitrary feed content never reach the storage layer as raw bytes.

func encodeContent(content string) string {
	return base64.StdEncoding.EncodeToString([]byte(content))
}

func decodeContent(encoded string) string {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Rows written by external tooling may hold plain text already.
		return encoded
	}
	return string(decoded)
}

// extractText strips markup from an HTML fragment and collapses whitespace.
func extractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("script, style").Remove()
	return collapseWhitespace(doc.Text())
}

// indexText is the canonical text form stored in the search index and applied
// to incoming queries: tag-stripped, NFC-normalized, lower-cased.
func indexText(s string) string {
	return strings.ToLower(norm.NFC.String(extractText(s)))
}

// summarize reduces an HTML body to a short plain-text excerpt.
func summarize(html string, maxRunes int) string {
	text := extractText(html)
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
