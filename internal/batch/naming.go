package batch

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9._]+`)

// Planner assigns each input document a unique output file name. Inputs from
// different directories that share a base name get numbered suffixes.
type Planner struct {
	used map[string]int
}

func NewPlanner() *Planner {
	return &Planner{used: make(map[string]int)}
}

// Next returns the output file name for input, relative to the output
// directory.
func (p *Planner) Next(input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := SanitizeSegment(strings.TrimSuffix(base, ext))
	ext = strings.ToLower(ext)

	key := stem + ext
	p.used[key]++
	if count := p.used[key]; count > 1 {
		return fmt.Sprintf("%s-%d%s", stem, count-1, ext)
	}
	return key
}

// SanitizeSegment converts arbitrary names into deterministic file-safe slugs.
func SanitizeSegment(input string) string {
	slug := strings.ToLower(strings.TrimSpace(input))
	slug = nonAlnum.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-.")
	if slug == "" {
		return "document"
	}
	return slug
}
