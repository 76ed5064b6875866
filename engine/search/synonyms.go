package search

import "strings"

// synonyms maps a lowercased label hint to extra keywords used for
// metadata name matching. couch/sofa expand to each other; cup expands
// to mug but not the reverse. The asymmetry is inherited behavior that
// callers depend on; widen it only with product review.
var synonyms = map[string][]string{
	"couch": {"sofa"},
	"sofa":  {"couch"},
	"cup":   {"mug"},
}

// expandKeywords builds the keyword set for a label hint: the lowercased
// hint itself plus its synonym expansions, in stable order.
func expandKeywords(hint string) []string {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return nil
	}
	return append([]string{h}, synonyms[h]...)
}

// nameMatches reports whether any keyword is a substring of the
// lowercased item name.
func nameMatches(name string, keywords []string) bool {
	n := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(n, kw) {
			return true
		}
	}
	return false
}
