// Package normalize cleans extracted document text before it is chunked.
package normalize

import (
	"regexp"
	"strings"
)

var (
	controlChars   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	extraNewlines  = regexp.MustCompile(`\n{3,}`)
	repeatedBlanks = regexp.MustCompile(`[ \t]{2,}`)
	hyphenWrap     = regexp.MustCompile(`([\p{L}\p{N}_])-[ \t]*\n[ \t]*([\p{L}\p{N}_])`)
	bulletMarker   = regexp.MustCompile(`(?m)^[ \t]*(?:•[ \t]*|[-*](?:[ \t]+|$))`)
	numberedMarker = regexp.MustCompile(`(?m)^[ \t]*(\d+)[.)](?:[ \t]+|$)`)
)

// Text returns a cleaned copy of s. Applying Text to its own output returns
// the same string.
//
// Control characters are removed first so that later passes never see a
// pattern that only appears once they are gone.
func Text(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = controlChars.ReplaceAllString(s, "")

	s = extraNewlines.ReplaceAllString(s, "\n\n")
	s = trimLines(s)
	s = extraNewlines.ReplaceAllString(s, "\n\n")
	s = repeatedBlanks.ReplaceAllString(s, " ")

	// Chains like "a-\nb-\nc" overlap, so repeat until nothing matches.
	for {
		joined := hyphenWrap.ReplaceAllString(s, "$1$2")
		if joined == s {
			break
		}
		s = joined
	}

	s = bulletMarker.ReplaceAllString(s, "- ")
	s = numberedMarker.ReplaceAllString(s, "$1. ")

	return strings.TrimSpace(s)
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}
