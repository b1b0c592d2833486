package parser

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractProducts collects product objects from embedded structured data:
// JSON-LD blocks whose @type mentions Product (top level, arrays, @graph or
// ItemList entries) and application/json blocks carrying a "products" list.
// Malformed blocks are skipped.
func ExtractProducts(doc *goquery.Document) []map[string]any {
	var products []map[string]any

	doc.Find(`script[type="application/ld+json"], script[type="application/json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		products = collectProducts(data, products)
	})

	return products
}

func collectProducts(data any, out []map[string]any) []map[string]any {
	switch v := data.(type) {
	case []any:
		for _, elem := range v {
			out = collectProducts(elem, out)
		}
	case map[string]any:
		if list, ok := v["products"].([]any); ok {
			for _, p := range list {
				if m, ok := p.(map[string]any); ok {
					out = append(out, m)
				}
			}
			return out
		}
		if isProduct(v) {
			return append(out, v)
		}
		if graph, ok := v["@graph"]; ok {
			return collectProducts(graph, out)
		}
		if items, ok := v["itemListElement"].([]any); ok {
			for _, it := range items {
				entry, ok := it.(map[string]any)
				if !ok {
					continue
				}
				if inner, ok := entry["item"]; ok {
					out = collectProducts(inner, out)
				} else {
					out = collectProducts(entry, out)
				}
			}
		}
	}
	return out
}

func isProduct(m map[string]any) bool {
	switch t := m["@type"].(type) {
	case string:
		return strings.Contains(t, "Product")
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && strings.Contains(s, "Product") {
				return true
			}
		}
	}
	return false
}

// StringField returns m[key] as text. Lists yield their first entry and
// objects their "url" or "name".
func StringField(m map[string]any, key string) string {
	return stringValue(m[key])
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, e := range t {
			if s := stringValue(e); s != "" {
				return s
			}
		}
	case map[string]any:
		if s := stringValue(t["url"]); s != "" {
			return s
		}
		return stringValue(t["name"])
	}
	return ""
}

// OfferPrice returns the raw price of a product's offers, which may be an
// object or a list of objects. Aggregate offers fall back to lowPrice.
func OfferPrice(product map[string]any) any {
	switch offers := product["offers"].(type) {
	case map[string]any:
		return offerPrice(offers)
	case []any:
		for _, o := range offers {
			if m, ok := o.(map[string]any); ok {
				if p := offerPrice(m); p != nil {
					return p
				}
			}
		}
	}
	if p, ok := product["price"]; ok {
		return p
	}
	return nil
}

func offerPrice(offer map[string]any) any {
	if p, ok := offer["price"]; ok && p != nil {
		return p
	}
	if p, ok := offer["lowPrice"]; ok && p != nil {
		return p
	}
	return nil
}
