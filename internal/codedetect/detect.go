// Package codedetect classifies message text as code-bearing. Detection is
// a heuristic gating a non-critical counter, so a handful of patterns is
// enough; no real parsing happens here.
package codedetect

import (
	"regexp"
	"strings"
)

var patterns = []*regexp.Regexp{
	regexp.MustCompile("```"),
	regexp.MustCompile("`[^`\n]+`"),
	regexp.MustCompile(`\bfunction\s+[A-Za-z_][A-Za-z0-9_.:]*\s*\(`),
	regexp.MustCompile(`\blocal\s+[A-Za-z_][A-Za-z0-9_]*\s*=`),
	regexp.MustCompile(`\bif\b.+\bthen\b`),
	regexp.MustCompile(`\bfor\b.+\bdo\b`),
	regexp.MustCompile(`\bwhile\b.+\bdo\b`),
	regexp.MustCompile(`(?m)^\s*end\s*$`),
}

// Detect reports whether text contains code. Deterministic and
// side-effect-free; the first matching pattern wins.
func Detect(text string) bool {
	if text == "" {
		return false
	}
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// CountFencedBlocks returns the number of paired triple-backtick fences.
// An unpaired trailing fence is ignored.
func CountFencedBlocks(text string) int {
	return strings.Count(text, "```") / 2
}
