// Package core holds the expense domain types and the keyword categorizer.
package core

import "strings"

// CategoryOther is the fallback label for descriptions matching no keyword.
const CategoryOther = "other"

// categoryRule couples a category label with its keyword substrings.
// Rule order matters: the first category with a matching keyword wins,
// so the table is a slice rather than a map.
type categoryRule struct {
	label    string
	keywords []string
}

var categoryRules = []categoryRule{
	{"food", []string{"restaurant", "cafe", "food", "pizza", "burger", "lunch", "dinner", "breakfast", "starbucks", "mcdonalds", "subway", "kfc"}},
	{"transport", []string{"uber", "lyft", "gas", "fuel", "parking", "taxi", "metro", "bus", "train", "ola"}},
	{"shopping", []string{"amazon", "walmart", "target", "mall", "store", "shop", "clothing", "shoes", "flipkart"}},
	{"entertainment", []string{"netflix", "spotify", "movie", "cinema", "game", "concert", "theater", "prime"}},
	{"utilities", []string{"electricity", "water", "internet", "phone", "wifi", "bill"}},
	{"health", []string{"pharmacy", "hospital", "doctor", "medical", "gym", "fitness", "medicine"}},
	{"education", []string{"book", "course", "tuition", "school", "university", "training", "udemy"}},
}

// Categorize maps a free-text description to a category label by
// case-insensitive keyword substring matching. It is a pure function of
// the description and the static rule table.
func Categorize(description string) string {
	desc := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(desc, kw) {
				return rule.label
			}
		}
	}
	return CategoryOther
}

// Categories returns the known category labels in matching order, without
// the fallback label.
func Categories() []string {
	out := make([]string, 0, len(categoryRules))
	for _, rule := range categoryRules {
		out = append(out, rule.label)
	}
	return out
}
