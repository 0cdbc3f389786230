// Package opml handles importing and exporting OPML subscription outlines.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/protosskai/RssReader/app/database"
)

// DefaultFolder receives feeds that sit at the outline root, outside any
// folder.
const DefaultFolder = "Default"

type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline is a single outline element: a folder when it nests children, a
// feed when it carries an xmlUrl.
type Outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLURL   string    `xml:"xmlUrl,attr,omitempty"`
	HTMLURL  string    `xml:"htmlUrl,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// Parse reads an OPML document into folder groups ready for folder tree
// reconciliation. Nested folders are flattened to their top level (the
// folder namespace is flat). Each imported feed gets a fresh stable source
// id and a favicon avatar derived from its site URL.
func Parse(r io.Reader) ([]database.FolderGroup, error) {
	var doc OPML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode opml: %w", err)
	}

	groups := make([]database.FolderGroup, 0)
	index := make(map[string]int)

	appendSource := func(folder string, o Outline) {
		pos, ok := index[folder]
		if !ok {
			pos = len(groups)
			index[folder] = pos
			groups = append(groups, database.FolderGroup{Name: folder})
		}

		title := o.Title
		if title == "" {
			title = o.Text
		}
		groups[pos].Sources = append(groups[pos].Sources, database.SourceInfo{
			ID:      NewSourceID(),
			Title:   title,
			HTMLURL: o.HTMLURL,
			FeedURL: o.XMLURL,
			Avatar:  BuildAvatarURL(o.HTMLURL),
		})
	}

	var walk func(outlines []Outline, folder string)
	walk = func(outlines []Outline, folder string) {
		for _, o := range outlines {
			if o.XMLURL != "" {
				appendSource(folder, o)
				continue
			}
			name := o.Text
			if name == "" {
				name = o.Title
			}
			if name == "" {
				name = folder
			}
			walk(o.Outlines, name)
		}
	}
	walk(doc.Body.Outlines, DefaultFolder)

	return groups, nil
}

// Render produces an OPML 2.0 document from the stored folder tree.
func Render(title string, groups []database.FolderGroup) ([]byte, error) {
	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:       title,
			DateCreated: time.Now().Format(time.RFC1123Z),
		},
	}

	for _, group := range groups {
		folderOutline := Outline{
			Text:  group.Name,
			Title: group.Name,
		}
		for _, src := range group.Sources {
			folderOutline.Outlines = append(folderOutline.Outlines, Outline{
				Text:    src.Title,
				Title:   src.Title,
				Type:    "rss",
				XMLURL:  src.FeedURL,
				HTMLURL: src.HTMLURL,
			})
		}
		doc.Body.Outlines = append(doc.Body.Outlines, folderOutline)
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal opml: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// NewSourceID mints a stable identifier for a newly subscribed source.
func NewSourceID() string {
	return uuid.NewString()
}

// BuildAvatarURL derives a favicon URL from a site URL. Returns an empty
// string when the site URL is unusable.
func BuildAvatarURL(htmlURL string) string {
	if htmlURL == "" {
		return ""
	}
	u, err := url.Parse(htmlURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s/favicon.ico", u.Scheme, u.Host)
}
