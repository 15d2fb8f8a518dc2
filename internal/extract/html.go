package extract

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// HTMLDecoder extracts visible text from HTML pages
type HTMLDecoder struct{}

// NewHTMLDecoder creates a new HTML decoder
func NewHTMLDecoder() *HTMLDecoder {
	return &HTMLDecoder{}
}

// Name returns the decoder name
func (d *HTMLDecoder) Name() string { return "html" }

// CanHandle checks if this decoder handles the given document type
func (d *HTMLDecoder) CanHandle(docType model.DocumentType) bool {
	return docType == model.DocumentHTML
}

// Decode parses the file and returns its visible text
func (d *HTMLDecoder) Decode(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "extract: open %s", path)
	}
	defer func() { _ = f.Close() }()

	return VisibleText(f)
}

// VisibleText parses HTML and returns its text nodes, skipping scripts and styles
func VisibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", eris.Wrap(err, "extract: parse html")
	}
	return visibleText(doc), nil
}

func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return strings.TrimSpace(buf.String())
}

// stripMarkup flattens an HTML fragment (e.g. a feed item description) to text
func stripMarkup(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}
	text, err := VisibleText(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return text
}
