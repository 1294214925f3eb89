package rag

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Phrases the generator tends to add that point at the retrieval mechanics
// instead of answering.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(fragmento \d+\)`),
	regexp.MustCompile(`(?i)como se menciona en el fragmento \d+[,.]?\s*`),
	regexp.MustCompile(`(?i)según el fragmento \d+[,.]?\s*`),
	regexp.MustCompile(`(?i)en el fragmento \d+[,.]?\s*`),
	regexp.MustCompile(`(?i)del fragmento \d+[,.]?\s*`),
	regexp.MustCompile(`(?i)según el contexto proporcionado[,.]?\s*`),
	regexp.MustCompile(`(?i)basado en la información (?:disponible|proporcionada)[,.]?\s*`),
	regexp.MustCompile(`(?i)de acuerdo a? los? documentos?[,.]?\s*`),
	regexp.MustCompile(`(?i)el contexto indica que\s*`),
	regexp.MustCompile(`(?i)según la información proporcionada[,.]?\s*`),
	regexp.MustCompile(`(?i)la información indica que\s*`),
	regexp.MustCompile(`(?i)según el manual de crédito[,.]?\s*`),
	regexp.MustCompile(`(?i)el manual indica que\s*`),
	regexp.MustCompile(`(?i)en el documento se menciona que\s*`),
	regexp.MustCompile(`(?i)el documento menciona que\s*`),
}

var (
	multiSpace       = regexp.MustCompile(`\s{2,}`)
	spaceBeforeDot   = regexp.MustCompile(`\s+\.`)
	spaceBeforeComma = regexp.MustCompile(`\s+,`)

	listAfterPunct  = regexp.MustCompile(`([.:])\s+(\d+)\.\s+`)
	listAfterParen  = regexp.MustCompile(`(?i)([a-zñáéíóú]{4,})\)\.\s+(\d+\.\s+\*?\*?[A-ZÁ-Ú])`)
	listAfterWord   = regexp.MustCompile(`(?i)([a-zñáéíóú]{4,})\.\s+(\d+\.\s+\*?\*?[A-ZÁ-Ú])`)
	bulletAfter     = regexp.MustCompile(`([.:])\s+([-•*]\s+)`)
	extraBreaks     = regexp.MustCompile(`\n{3,}`)
	listMarkerSpace = regexp.MustCompile(`(?m)^(\d+\.)(\S)`)
	initialBreak    = regexp.MustCompile(`([A-Z])\.\n(\d)`)
)

const maxListItem = 20

// CleanAnswer removes references to fragments and documents from a generated
// answer, tidies spacing and puts list items on their own lines.
func CleanAnswer(answer string) string {
	s := answer
	for _, re := range referencePatterns {
		s = re.ReplaceAllString(s, "")
	}
	s = multiSpace.ReplaceAllString(s, " ")
	s = spaceBeforeDot.ReplaceAllString(s, ".")
	s = spaceBeforeComma.ReplaceAllString(s, ",")
	s = strings.TrimSpace(s)
	s = capitalizeFirst(s)

	return formatLists(s)
}

func formatLists(s string) string {
	s = listAfterPunct.ReplaceAllStringFunc(s, func(m string) string {
		sub := listAfterPunct.FindStringSubmatch(m)
		n, err := strconv.Atoi(sub[2])
		if err != nil || n < 1 || n > maxListItem {
			return m
		}
		// Keep the original spacing after the marker.
		rest := strings.TrimPrefix(m, sub[1])
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		return sub[1] + "\n" + rest
	})
	s = listAfterParen.ReplaceAllString(s, "$1).\n$2")
	s = listAfterWord.ReplaceAllString(s, "$1.\n$2")
	s = bulletAfter.ReplaceAllString(s, "$1\n$2")
	s = extraBreaks.ReplaceAllString(s, "\n\n")
	s = listMarkerSpace.ReplaceAllString(s, "$1 $2")
	// "G.\n300" is an abbreviation followed by an amount, not a list.
	s = initialBreak.ReplaceAllString(s, "$1. $2")
	return s
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// SearchQuality labels the best context score.
func SearchQuality(scores []float64) string {
	if len(scores) == 0 {
		return QualityNone
	}
	best := scores[0]
	for _, s := range scores[1:] {
		best = max(best, s)
	}
	switch {
	case best > 0.8:
		return QualityExcellent
	case best > 0.5:
		return QualityGood
	default:
		return QualityFair
	}
}
