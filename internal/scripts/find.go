package scripts

import (
	"path/filepath"
	"sort"
	"strings"
)

var executorPriority = map[Executor]int{}

func init() {
	for i, e := range Executors {
		executorPriority[e] = i
	}
}

// Find locates a script by identifier, relative path, file name or stem.
// Exact matches win; among several, runnable executors come first. A
// bare suffix match (e.g. "EDA/run.sh" against "examples:scripts/EDA/run.sh")
// is only returned when it is unambiguous.
func Find(list []*Script, query string) *Script {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil
	}

	var exact, suffix []*Script
	for _, s := range list {
		identifier := strings.ToLower(s.Identifier)
		relative := identifier
		if _, after, ok := strings.Cut(identifier, ":"); ok {
			relative = after
		}
		name := strings.ToLower(filepath.Base(s.Path))
		stem := strings.ToLower(s.Stem())

		switch normalized {
		case identifier, relative, name, stem:
			exact = append(exact, s)
			continue
		}
		if strings.HasSuffix(identifier, normalized) ||
			strings.HasSuffix(relative, normalized) ||
			strings.HasSuffix(name, normalized) {
			suffix = append(suffix, s)
		}
	}

	byPriority := func(matches []*Script) {
		sort.Slice(matches, func(i, j int) bool {
			pi, pj := executorPriority[matches[i].Executor], executorPriority[matches[j].Executor]
			if pi != pj {
				return pi < pj
			}
			return matches[i].Identifier < matches[j].Identifier
		})
	}

	if len(exact) > 0 {
		byPriority(exact)
		return exact[0]
	}
	if len(suffix) == 1 {
		return suffix[0]
	}
	return nil
}
