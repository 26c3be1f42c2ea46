package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseStyles splits an inline style attribute into declarations.
func parseStyles(attr string) []Style {
	var out []Style
	for _, decl := range strings.Split(attr, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		prop = strings.TrimSpace(prop)
		if !ok || prop == "" {
			continue
		}
		out = append(out, Style{Property: strings.ToLower(prop), Value: strings.TrimSpace(value)})
	}
	return out
}

func formatStyles(styles []Style) string {
	parts := make([]string, 0, len(styles))
	for _, s := range styles {
		parts = append(parts, s.Property+": "+s.Value)
	}
	return strings.Join(parts, "; ")
}

// setStyle merges styles into the style attribute of every element of sel.
// Existing declarations of the same property are replaced in place.
func setStyle(sel *goquery.Selection, styles ...Style) {
	sel.Each(func(_ int, s *goquery.Selection) {
		current := parseStyles(s.AttrOr("style", ""))
	next:
		for _, st := range styles {
			prop := strings.ToLower(st.Property)
			for i := range current {
				if current[i].Property == prop {
					current[i].Value = st.Value
					continue next
				}
			}
			current = append(current, Style{Property: prop, Value: st.Value})
		}
		s.SetAttr("style", formatStyles(current))
	})
}

// StyleOf returns the value of property in the inline style of sel's first
// element, or "".
func StyleOf(sel *goquery.Selection, property string) string {
	for _, s := range parseStyles(sel.AttrOr("style", "")) {
		if s.Property == strings.ToLower(property) {
			return s.Value
		}
	}
	return ""
}
