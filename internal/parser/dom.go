package parser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var whitespace = regexp.MustCompile(`\s+`)

// Clean collapses runs of whitespace into single spaces and trims the ends.
func Clean(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// skipText lists elements whose text never reaches the rendered page.
var skipText = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// visibleText returns the cleaned, rendered-ish text of a selection.
// Text nodes are joined with spaces so adjacent blocks do not run together.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if skipText[n.Data] {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return Clean(strings.Join(parts, " "))
}

// firstText returns the visible text of the first match of selector in sel.
func firstText(sel *goquery.Selection, selector string) string {
	m := sel.Find(selector).First()
	if m.Length() == 0 {
		return ""
	}
	return visibleText(m)
}

// resolveURL resolves href against base. Absolute hrefs are returned as-is;
// unparsable or empty hrefs yield "".
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
