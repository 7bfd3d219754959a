package knowledge

import (
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Document is a unit of content in the local index.
type Document struct {
	ID      string
	Title   string
	URL     string
	Content string // markdown
}

// FromHTML converts an HTML page into a Document. The title comes from
// <title>, then the first <h1>.
func FromHTML(html, sourceURL string) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Document{}, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find("script, style, noscript, nav, footer").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	inner, err := body.Html()
	if err != nil {
		return Document{}, err
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(inner)
	if err != nil {
		return Document{}, err
	}

	return Document{
		Title:   title,
		URL:     sourceURL,
		Content: strings.TrimSpace(markdown),
	}, nil
}

// FromFile builds a Document from file content. HTML files are converted to
// markdown, everything else is indexed as-is.
func FromFile(path string, data []byte) (Document, error) {
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		d, err := FromHTML(string(data), path)
		if err != nil {
			return Document{}, err
		}
		if d.Title == "" {
			d.Title = name
		}
		return d, nil
	default:
		return Document{
			Title:   markdownTitle(string(data), name),
			URL:     path,
			Content: strings.TrimSpace(string(data)),
		}, nil
	}
}

// markdownTitle returns the first ATX heading, or fallback.
func markdownTitle(content, fallback string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			if t := strings.TrimSpace(strings.TrimLeft(line, "#")); t != "" {
				return t
			}
		}
	}
	return fallback
}
