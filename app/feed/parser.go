package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Parser decodes raw feed bodies (RSS, Atom, JSON Feed) into canonical post
// records.
type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Decode parses a raw feed body. Posts without a guid fall back to their
// link, so a stored guid is always non-empty for well-formed feeds.
func (p *Parser) Decode(data []byte) (*Metadata, []PostRecord, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       parsed.Title,
		Link:        parsed.Link,
		Description: parsed.Description,
		Language:    parsed.Language,
	}
	if parsed.Image != nil {
		metadata.ImageURL = parsed.Image.URL
	}
	if parsed.UpdatedParsed != nil {
		metadata.UpdatedAt = parsed.UpdatedParsed
	} else if parsed.PublishedParsed != nil {
		metadata.UpdatedAt = parsed.PublishedParsed
	}

	posts := make([]PostRecord, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		posts = append(posts, p.normalizeItem(item))
	}

	return metadata, posts, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) PostRecord {
	post := PostRecord{
		GUID:           cmp.Or(item.GUID, item.Link),
		Title:          item.Title,
		Description:    item.Description,
		Link:           item.Link,
		ContentEncoded: item.Content,
		Author:         p.extractAuthor(item),
	}

	switch {
	case item.PublishedParsed != nil:
		post.PubDate = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		post.PubDate = *item.UpdatedParsed
	default:
		post.PubDate = time.Now().UTC()
	}

	return post
}

func (p *Parser) extractAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return p.formatAuthor(item.Authors[0].Name, item.Authors[0].Email)
	}
	if item.Author != nil {
		return p.formatAuthor(item.Author.Name, item.Author.Email)
	}
	return ""
}

func (p *Parser) formatAuthor(name, email string) string {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name != "" && email != "" {
		return fmt.Sprintf("%s (%s)", email, name)
	} else if name != "" {
		return name
	} else if email != "" {
		return email
	}

	return ""
}
