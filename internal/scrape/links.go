package scrape

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/ppiankov/landlock/internal/model"
	"golang.org/x/net/html"
)

// categoryKeywords decide which internal links are worth following for a category
var categoryKeywords = map[model.SourceCategory][]string{
	model.CategoryBudget:    {"budget", "finance", "spending", "capital"},
	model.CategoryZoning:    {"zoning", "bylaw", "land-use", "planning"},
	model.CategoryProposals: {"proposal", "application", "development", "plan"},
	model.CategoryAnalytics: {"statistics", "demographics", "population", "growth"},
}

// Link is an anchor found on a page
type Link struct {
	URL  string
	Text string
}

// htmlPage is a parsed HTML document
type htmlPage struct {
	Title string
	Links []Link
}

// parseHTML reads the title and every http(s) link, resolved against pageURL and deduplicated
func parseHTML(body []byte, pageURL string) (*htmlPage, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	page := &htmlPage{}
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.Title == "" {
					page.Title = strings.TrimSpace(nodeText(n))
				}
			case "a":
				href := attr(n, "href")
				if resolved := resolveURL(base, href); resolved != "" && !seen[resolved] {
					seen[resolved] = true
					page.Links = append(page.Links, Link{URL: resolved, Text: strings.TrimSpace(nodeText(n))})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return page, nil
}

// relevantLinks keeps same-host links whose URL or text mentions a category keyword
func relevantLinks(links []Link, pageURL string, category model.SourceCategory, limit int) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	keywords := categoryKeywords[category]

	var out []string
	for _, l := range links {
		if limit > 0 && len(out) >= limit {
			break
		}
		parsed, err := url.Parse(l.URL)
		if err != nil || parsed.Host != base.Host {
			continue
		}
		href := strings.ToLower(l.URL)
		text := strings.ToLower(l.Text)
		for _, kw := range keywords {
			if strings.Contains(href, kw) || strings.Contains(text, kw) {
				out = append(out, l.URL)
				break
			}
		}
	}
	return out
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
