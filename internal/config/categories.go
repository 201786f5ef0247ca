package config

import "sort"

// CategoryWeights orders command categories in help output and the README.
// Unknown categories sort last.
var CategoryWeights = map[string]int{
	"system":        0,
	"music":         10,
	"music-dj":      20,
	"music-admin":   30,
	"context-menus": 40,
	"developer":     60,
}

// SortCategories orders category names by weight, then alphabetically.
func SortCategories(categories []string) {
	weight := func(c string) int {
		if w, ok := CategoryWeights[c]; ok {
			return w
		}
		return 1 << 16
	}
	sort.Slice(categories, func(i, j int) bool {
		wi, wj := weight(categories[i]), weight(categories[j])
		if wi == wj {
			return categories[i] < categories[j]
		}
		return wi < wj
	})
}
