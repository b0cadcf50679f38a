package model

import "strings"

// GLMappingEntry maps one general-ledger account code to its canonical
// category and chart-of-accounts code.
type GLMappingEntry struct {
	GLCode   string `json:"gl_code"`
	Label    string `json:"label"`
	Category string `json:"category"`
	COACode  string `json:"coa_code,omitempty"`
}

// GLMapping is a code-to-entry lookup built once per run and treated as
// read-only by every downstream parser.
type GLMapping struct {
	entries map[string]GLMappingEntry
}

// NewGLMapping builds a mapping from a list of entries. Later duplicates of
// the same code are ignored.
func NewGLMapping(entries []GLMappingEntry) *GLMapping {
	m := &GLMapping{entries: make(map[string]GLMappingEntry, len(entries))}
	for _, e := range entries {
		code := normalizeGLCode(e.GLCode)
		if code == "" {
			continue
		}
		if _, exists := m.entries[code]; !exists {
			m.entries[code] = e
		}
	}
	return m
}

// Lookup returns the entry for a GL code, tolerating dash suffixes
// ("510200-01" falls back to "510200").
func (m *GLMapping) Lookup(code string) (GLMappingEntry, bool) {
	if m == nil || len(m.entries) == 0 {
		return GLMappingEntry{}, false
	}
	norm := normalizeGLCode(code)
	if e, ok := m.entries[norm]; ok {
		return e, true
	}
	if idx := strings.Index(norm, "-"); idx > 0 {
		if e, ok := m.entries[norm[:idx]]; ok {
			return e, true
		}
	}
	return GLMappingEntry{}, false
}

// Len returns the number of mapped codes.
func (m *GLMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Entries returns a copy of all entries, in no particular order.
func (m *GLMapping) Entries() []GLMappingEntry {
	if m == nil {
		return nil
	}
	out := make([]GLMappingEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

func normalizeGLCode(code string) string {
	return strings.TrimSpace(code)
}
