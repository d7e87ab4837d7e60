// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package mission

import (
	"sort"
	"strings"
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "how": true, "in": true, "is": true,
	"it": true, "its": true, "not": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "this": true, "to": true,
	"was": true, "were": true, "what": true, "when": true, "which": true,
	"will": true, "with": true,
}

const maxQueryKeywords = 6

// topKeywords ranks the non-stopword terms of text by frequency (ties broken
// by first appearance) and returns up to maxQueryKeywords of them.
func topKeywords(text string) []string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, `.,;:!?"'()[]{}<>`)
		if len(w) < 3 || stopwords[w] {
			continue
		}
		if _, ok := firstSeen[w]; !ok {
			firstSeen[w] = i
		}
		counts[w]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return firstSeen[words[i]] < firstSeen[words[j]]
	})

	if len(words) > maxQueryKeywords {
		words = words[:maxQueryKeywords]
	}
	return words
}
