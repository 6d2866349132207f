package main

import (
	"sort"

	"github.com/statistics102/course-monitor/internal/models"
)

// contentTypeOrder lists the known content types first, in form order,
// followed by any other labels alphabetically.
func contentTypeOrder(counts map[string]int) []string {
	known := make(map[string]bool, len(models.ContentTypes))
	var out []string
	for _, t := range models.ContentTypes {
		known[t] = true
		if counts[t] > 0 {
			out = append(out, t)
		}
	}

	var other []string
	for t := range counts {
		if !known[t] {
			other = append(other, t)
		}
	}
	sort.Strings(other)
	return append(out, other...)
}
