package rag

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	minKeywordRunes = 3
	minPhraseRunes  = 6

	// sentencePunct is stripped from keywords; hyphens, "%" and "/" stay part of the token.
	sentencePunct = "¿?¡!.,;:"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// Vocabulary is the fixed domain word lists used by the analyzer.
type Vocabulary struct {
	StopWords      []string            `yaml:"stop_words"`
	NumericContext []string            `yaml:"numeric_context"`
	Synonyms       map[string][]string `yaml:"synonyms"`
}

// DefaultVocabulary returns the built-in Spanish vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		StopWords: []string{
			"el", "la", "los", "las", "un", "una", "de", "del", "para",
			"por", "con", "qué", "cuál", "cómo", "es", "son", "está",
		},
		NumericContext: []string{
			"plazo", "monto", "tasa", "meses", "años", "días",
			"porcentaje", "máximo", "mínimo", "interés",
		},
		Synonyms: map[string][]string{
			"crédito":    {"préstamo", "financiamiento"},
			"préstamo":   {"crédito", "financiamiento"},
			"requisitos": {"documentos", "necesito", "requiere", "documentación"},
			"consumo":    {"personal"},
			"personal":   {"consumo"},
			"socio":      {"asociado", "miembro"},
			"plazo":      {"período", "tiempo"},
			"monto":      {"cantidad", "suma"},
			"tasa":       {"interés", "porcentaje"},
		},
	}
}

// Analyzer extracts keywords, numbers and phrases from queries.
type Analyzer struct {
	stopWords      map[string]struct{}
	numericContext map[string]struct{}
	synonymKeys    []string
	synonyms       map[string][]string
}

// NewAnalyzer creates an analyzer over the given vocabulary.
func NewAnalyzer(v Vocabulary) *Analyzer {
	a := &Analyzer{
		stopWords:      toSet(v.StopWords),
		numericContext: toSet(v.NumericContext),
		synonyms:       make(map[string][]string, len(v.Synonyms)),
	}
	for word, syns := range v.Synonyms {
		word = strings.ToLower(word)
		a.synonyms[word] = syns
		a.synonymKeys = append(a.synonymKeys, word)
	}
	slices.Sort(a.synonymKeys)
	return a
}

// Analyze returns the scored features of query.
func (a *Analyzer) Analyze(query string) QueryAnalysis {
	keywords := a.Keywords(query)
	numericContext := false
	for _, kw := range keywords {
		if _, ok := a.numericContext[kw]; ok {
			numericContext = true
			break
		}
	}
	return QueryAnalysis{
		Keywords:       keywords,
		Numbers:        Numbers(query),
		Phrases:        Phrases(query),
		NumericContext: numericContext,
	}
}

// Keywords lowercases query, strips sentence punctuation and drops stop words and tokens shorter than three runes.
func (a *Analyzer) Keywords(query string) []string {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(sentencePunct, r) {
			return -1
		}
		return r
	}, strings.ToLower(query))

	keywords := []string{}
	for _, word := range strings.Fields(stripped) {
		if utf8.RuneCountInString(word) < minKeywordRunes {
			continue
		}
		if _, stop := a.stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

// Numbers returns the maximal ASCII digit runs of s in order of appearance.
func Numbers(s string) []string {
	found := digitRun.FindAllString(s, -1)
	if found == nil {
		return []string{}
	}
	return found
}

// Phrases returns the 2- and 3-word windows of the lowercased query that are at least six runes long.
func Phrases(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	phrases := []string{}
	add := func(p string) {
		if utf8.RuneCountInString(p) >= minPhraseRunes {
			phrases = append(phrases, p)
		}
	}
	for i := 0; i+1 < len(words); i++ {
		add(words[i] + " " + words[i+1])
		if i+2 < len(words) {
			add(words[i] + " " + words[i+1] + " " + words[i+2])
		}
	}
	return phrases
}

// Expand returns the lowercased query followed by variants where a vocabulary
// word is replaced by one of its synonyms. Duplicates are removed.
func (a *Analyzer) Expand(query string) []string {
	base := strings.ToLower(query)
	variants := []string{base}
	seen := map[string]struct{}{base: {}}

	for _, word := range a.synonymKeys {
		if !strings.Contains(base, word) {
			continue
		}
		for _, syn := range a.synonyms[word] {
			v := strings.Replace(base, word, syn, 1)
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			variants = append(variants, v)
		}
	}
	return variants
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}
