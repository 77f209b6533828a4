package enrich

import (
	"sort"
	"strings"

	"course-nlu/internal/nlu"
)

// MinConcepts is the concept count below which keywords are appended.
const MinConcepts = 3

// SubjectsFromLabels splits every category label on "/", drops the root
// segment and returns the de-duplicated union of what is left, sorted.
// "/education/math" contributes "math"; "/education/subject/x" contributes
// "subject" and "x"; a single-level label such as "/science" contributes
// nothing. Empty segments from doubled or trailing slashes are
// skipped.
func SubjectsFromLabels(labels []string) []string {
	seen := map[string]struct{}{}
	for _, label := range labels {
		parts := strings.Split(label, "/")
		if parts[0] == "" {
			parts = parts[1:]
		}
		if len(parts) <= 1 {
			continue
		}
		for _, seg := range parts[1:] {
			if seg == "" {
				continue
			}
			seen[seg] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ConceptsWithBackfill returns concepts unchanged when there are at least
// MinConcepts of them; otherwise every keyword is appended in order, with no
// de-duplication.
func ConceptsWithBackfill(concepts, keywords []string) []string {
	out := make([]string, 0, len(concepts)+len(keywords))
	out = append(out, concepts...)
	if len(concepts) < MinConcepts {
		out = append(out, keywords...)
	}
	return out
}

func categoryLabels(in []nlu.Category) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		out = append(out, c.Label)
	}
	return out
}

func keywordTexts(in []nlu.Keyword) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		out = append(out, k.Text)
	}
	return out
}

func conceptTexts(in []nlu.Concept) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		out = append(out, c.Text)
	}
	return out
}
