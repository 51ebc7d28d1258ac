package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

const jsonLDXPath = `//script[@type="application/ld+json"]`

// jsonLDObjects returns every JSON-LD object embedded in the page. Top-level
// arrays and @graph containers are flattened; malformed blocks are skipped.
func jsonLDObjects(root *html.Node) []map[string]any {
	nodes, err := htmlquery.QueryAll(root, jsonLDXPath)
	if err != nil {
		return nil
	}

	var objects []map[string]any
	for _, node := range nodes {
		raw := strings.TrimSpace(htmlquery.InnerText(node))
		if raw == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			continue
		}
		objects = flattenJSONLD(objects, v)
	}
	return objects
}

func flattenJSONLD(out []map[string]any, v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			out = flattenJSONLD(out, e)
		}
	case map[string]any:
		if graph, ok := t["@graph"]; ok {
			out = flattenJSONLD(out, graph)
			if _, typed := t["@type"]; !typed {
				return out
			}
		}
		out = append(out, t)
	}
	return out
}

// hasType reports whether a JSON-LD object declares the given @type, either
// as a string or within a list of types.
func hasType(obj map[string]any, want string) bool {
	switch t := obj["@type"].(type) {
	case string:
		return t == want
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// object returns obj[key] as an object. Lists yield their first object.
func object(obj map[string]any, key string) map[string]any {
	switch t := obj[key].(type) {
	case map[string]any:
		return t
	case []any:
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// scalar renders a JSON scalar as a string; numbers keep their literal form.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool, float64:
		return fmt.Sprint(t)
	}
	return ""
}

// imageURL accepts the schema.org image forms: a URL string, a list of
// those, or an ImageObject with a url.
func imageURL(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, e := range t {
			if u := imageURL(e); u != "" {
				return u
			}
		}
	case map[string]any:
		if u := scalar(t["url"]); u != "" {
			return u
		}
		return scalar(t["contentUrl"])
	}
	return ""
}

// breadcrumbName returns the name of the breadcrumb at position idx.
// The name may sit on the ListItem or on its nested item.
func breadcrumbName(obj map[string]any, idx int) string {
	list, ok := obj["itemListElement"].([]any)
	if !ok || len(list) <= idx {
		return ""
	}
	entry, ok := list[idx].(map[string]any)
	if !ok {
		return ""
	}
	if item := object(entry, "item"); item != nil {
		if name := scalar(item["name"]); name != "" {
			return name
		}
	}
	return scalar(entry["name"])
}
