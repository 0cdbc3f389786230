package database

import (
	"strings"
	"testing"
)

func TestContentRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"plain text",
		"<p>markup with \x00 control bytes\x1b</p>",
		"unicode: héllo wörld 日本語",
	}
	for _, content := range cases {
		if got := decodeContent(encodeContent(content)); got != content {
			t.Errorf("Round trip changed content: %q -> %q", content, got)
		}
	}
}

func TestDecodeContentFallsBackToRaw(t *testing.T) {
	// Not valid base64: treat as already-decoded text.
	raw := "just some plain text!"
	if got := decodeContent(raw); got != raw {
		t.Errorf("Expected raw passthrough, got: %q", got)
	}
}

func TestExtractText(t *testing.T) {
	html := `<html><head><style>p { color: red }</style></head>
<body><script>alert("x")</script><p>Hello   <b>world</b></p>
<p>second	line</p></body></html>`

	got := extractText(html)
	if got != "Hello world second line" {
		t.Errorf("Expected collapsed plain text, got: %q", got)
	}
}

func TestIndexText(t *testing.T) {
	got := indexText("<p>MiXeD Case</p>")
	if got != "mixed case" {
		t.Errorf("Expected lower-cased text, got: %q", got)
	}

	// Decomposed and precomposed forms index identically.
	precomposed := indexText("café")
	decomposed := indexText("cafe\u0301")
	if precomposed != decomposed {
		t.Errorf("Expected normalized forms to match: %q vs %q", precomposed, decomposed)
	}
}

func TestSummarize(t *testing.T) {
	short := summarize("<p>short body</p>", 100)
	if short != "short body" {
		t.Errorf("Expected untruncated text, got: %q", short)
	}

	long := summarize("<p>"+strings.Repeat("a", 200)+"</p>", 100)
	if len([]rune(long)) != 103 {
		t.Errorf("Expected 100 runes plus ellipsis, got %d", len([]rune(long)))
	}
	if !strings.HasSuffix(long, "...") {
		t.Errorf("Expected ellipsis suffix, got: %q", long)
	}
}
