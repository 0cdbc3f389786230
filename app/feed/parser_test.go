package feed

import (
	"testing"
	"time"
)

func TestDecodeRSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <language>en-us</language>
    <image>
      <url>https://example.com/icon.png</url>
      <title>Test Feed</title>
      <link>https://example.com</link>
    </image>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <description>Test Item 1 Description</description>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <author>test@example.com (Test Author)</author>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
      <description>Test Item 2 Description</description>
      <pubDate>Mon, 03 Jul 2023 11:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	metadata, posts, err := parser.Decode([]byte(rssData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Title != "Test Feed" {
		t.Errorf("Expected title 'Test Feed', got: %s", metadata.Title)
	}
	if metadata.Link != "https://example.com" {
		t.Errorf("Expected link 'https://example.com', got: %s", metadata.Link)
	}
	if metadata.Language != "en-us" {
		t.Errorf("Expected language 'en-us', got: %s", metadata.Language)
	}
	if metadata.ImageURL != "https://example.com/icon.png" {
		t.Errorf("Expected image URL, got: %s", metadata.ImageURL)
	}

	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got: %d", len(posts))
	}

	post1 := posts[0]
	if post1.GUID != "item-1" {
		t.Errorf("Expected GUID 'item-1', got: %s", post1.GUID)
	}
	if post1.Title != "Test Item 1" {
		t.Errorf("Expected title 'Test Item 1', got: %s", post1.Title)
	}
	if post1.Link != "https://example.com/item1" {
		t.Errorf("Expected link 'https://example.com/item1', got: %s", post1.Link)
	}
	expected := time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC)
	if !post1.PubDate.Equal(expected) {
		t.Errorf("Expected pub date %v, got: %v", expected, post1.PubDate)
	}
	if post1.Author == "" {
		t.Error("Expected author to be extracted")
	}

	// No guid: the link takes over as identity.
	post2 := posts[1]
	if post2.GUID != "https://example.com/item2" {
		t.Errorf("Expected link fallback guid, got: %s", post2.GUID)
	}
}

func TestDecodeAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <link href="https://example.com"/>
  <updated>2023-07-03T12:00:00Z</updated>
  <author>
    <name>Test Author</name>
  </author>
  <id>urn:uuid:1234567890</id>
  <entry>
    <title>Test Entry</title>
    <link href="https://example.com/entry1"/>
    <id>urn:uuid:entry-1</id>
    <updated>2023-07-03T10:00:00Z</updated>
    <content type="html">&lt;p&gt;Test content&lt;/p&gt;</content>
  </entry>
</feed>`

	parser := NewParser()
	metadata, posts, err := parser.Decode([]byte(atomData))

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Title != "Test Atom Feed" {
		t.Errorf("Expected title 'Test Atom Feed', got: %s", metadata.Title)
	}

	if len(posts) != 1 {
		t.Fatalf("Expected 1 post, got: %d", len(posts))
	}

	post := posts[0]
	if post.GUID != "urn:uuid:entry-1" {
		t.Errorf("Expected GUID 'urn:uuid:entry-1', got: %s", post.GUID)
	}
	if post.Title != "Test Entry" {
		t.Errorf("Expected title 'Test Entry', got: %s", post.Title)
	}
	if post.ContentEncoded == "" {
		t.Error("Expected content to be decoded")
	}
}

func TestDecodeInvalidFeed(t *testing.T) {
	parser := NewParser()
	_, _, err := parser.Decode([]byte("invalid xml"))

	if err == nil {
		t.Error("Expected error for invalid XML")
	}
}

func TestDecodeMissingDateFallsBackToNow(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test</description>
    <item>
      <title>No Date</title>
      <link>https://example.com/item1</link>
      <guid>item-1</guid>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	before := time.Now().UTC()
	_, posts, err := parser.Decode([]byte(rssData))
	after := time.Now().UTC()

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("Expected 1 post, got: %d", len(posts))
	}
	if posts[0].PubDate.Before(before) || posts[0].PubDate.After(after) {
		t.Errorf("Expected pub date between %v and %v, got: %v", before, after, posts[0].PubDate)
	}
}

func TestFormatAuthor(t *testing.T) {
	parser := NewParser()

	cases := []struct {
		name, email, want string
	}{
		{"Alice", "alice@example.com", "alice@example.com (Alice)"},
		{"Alice", "", "Alice"},
		{"", "alice@example.com", "alice@example.com"},
		{"", "", ""},
		{"  Alice  ", " alice@example.com ", "alice@example.com (Alice)"},
	}
	for _, tc := range cases {
		if got := parser.formatAuthor(tc.name, tc.email); got != tc.want {
			t.Errorf("formatAuthor(%q, %q) = %q, want %q", tc.name, tc.email, got, tc.want)
		}
	}
}
