package linkcheck

import (
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/net/html"
)

// linkAttrs lists the attributes that reference other resources, per element
var linkAttrs = map[string][]string{
	"a":      {"href"},
	"area":   {"href"},
	"link":   {"href"},
	"img":    {"src"},
	"script": {"src"},
	"frame":  {"src"},
	"iframe": {"src"},
	"embed":  {"src"},
	"body":   {"background"},
	"table":  {"background"},
	"td":     {"background"},
}

var ignoredSchemes = []string{"mailto:", "javascript:", "data:", "tel:", "about:"}

// 🔍 ExtractLinks returns every resource reference in an HTML document in
// document order, without duplicates. Fragments and non-fetchable schemes
// are left out.
func ExtractLinks(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.Errorf("parsing html: %w", err)
	}

	var links []string
	seen := map[string]bool{}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, key := range linkAttrs[n.Data] {
				for _, attr := range n.Attr {
					if attr.Key != key {
						continue
					}
					link := strings.TrimSpace(attr.Val)
					if !fetchable(link) || seen[link] {
						continue
					}
					seen[link] = true
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

func fetchable(link string) bool {
	if link == "" || strings.HasPrefix(link, "#") {
		return false
	}
	lower := strings.ToLower(link)
	for _, scheme := range ignoredSchemes {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return true
}
