// utils/labels.go
package utils

import (
	"strings"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// labelKey folds accents and case so "Crampes", "crampes " and "CRAMPES"
// compare equal.
func labelKey(label string) string {
	return folder.String(unidecode.Unidecode(strings.TrimSpace(label)))
}

// NormalizeLabels trims free-text labels (symptoms, activities), drops
// empty ones and de-duplicates them, keeping the first spelling seen.
func NormalizeLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, label := range labels {
		label = strings.Join(strings.Fields(label), " ")
		if label == "" {
			continue
		}
		key := labelKey(label)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, label)
	}
	return out
}
