package ingest

import (
	"strings"

	"github.com/JonMunkholm/loanledger/internal/core"
)

// Column is a resolved source column.
type Column struct {
	Index  int    `json:"index"`
	Header string `json:"header"`
}

// Mapping assigns source columns to canonical fields. Unresolved fields are
// absent.
type Mapping map[core.Field]Column

// Lookup returns the column for f.
func (m Mapping) Lookup(f core.Field) (Column, bool) {
	c, ok := m[f]
	return c, ok
}

// Missing returns the required fields that did not resolve.
func (m Mapping) Missing() []core.Field {
	var missing []core.Field
	for _, f := range requiredFields {
		if _, ok := m[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// Resolve maps each field in syn to a header column.
//
// Candidates are tried in priority order. For each candidate an exact
// case-insensitive match is tried first, then a substring match (header
// contains candidate). The first candidate that matches either way wins,
// taking the leftmost matching header. Output depends only on the inputs.
func Resolve(header []string, syn Synonyms) Mapping {
	lowered := make([]string, len(header))
	for i, h := range header {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	m := make(Mapping, len(syn))
	for _, fc := range syn {
		if idx, ok := matchCandidates(lowered, fc.Candidates); ok {
			m[fc.Field] = Column{Index: idx, Header: strings.TrimSpace(header[idx])}
		}
	}
	return m
}

func matchCandidates(header []string, candidates []string) (int, bool) {
	for _, cand := range candidates {
		c := strings.ToLower(strings.TrimSpace(cand))
		if c == "" {
			continue
		}
		for i, h := range header {
			if h == c {
				return i, true
			}
		}
		for i, h := range header {
			if h != "" && strings.Contains(h, c) {
				return i, true
			}
		}
	}
	return -1, false
}
