package rag

import "docqa/internal/vectorstore"

// QueryAnalysis holds the lexical features of a query used by the scorer.
type QueryAnalysis struct {
	Keywords []string `json:"keywords"`
	Numbers  []string `json:"numbers"`
	Phrases  []string `json:"phrases"`
	// NumericContext reports whether a keyword belongs to the numeric-context vocabulary.
	NumericContext bool `json:"numeric_context"`
}

// KeywordMatch records how often a keyword occurs in a chunk.
type KeywordMatch struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// ScoredChunk is a chunk with its per-signal relevance breakdown.
type ScoredChunk struct {
	Chunk           vectorstore.Chunk `json:"chunk"`
	SemanticScore   float64           `json:"semantic_score"`
	KeywordScore    float64           `json:"keyword_score"`
	NumberScore     float64           `json:"number_score"`
	PhraseScore     float64           `json:"phrase_score"`
	FinalScore      float64           `json:"final_score"`
	Strategies      []string          `json:"strategies"`
	MatchedKeywords []KeywordMatch    `json:"matched_keywords,omitempty"`
	MatchedPhrases  []string          `json:"matched_phrases,omitempty"`
	ChunkNumbers    []string          `json:"chunk_numbers,omitempty"`
}

// Result is the outcome of a retrieval call.
type Result struct {
	// ContextChunks are the budgeted chunks in descending FinalScore order.
	ContextChunks []ScoredChunk `json:"context_chunks"`
	// Scores are the FinalScore values of ContextChunks, in the same order.
	Scores []float64 `json:"scores"`
	// Sources are the distinct document names of ContextChunks in first-appearance order.
	Sources []string `json:"sources"`
	// ThresholdUsed is the cascade threshold that produced the candidates.
	ThresholdUsed float64 `json:"threshold_used"`
	// TopK is the candidate limit derived from the corpus size.
	TopK int `json:"top_k"`
	// Candidates is the number of chunks that passed the threshold before truncation.
	Candidates int `json:"candidates"`
	// ContextChars is the budget consumed by ContextChunks, overhead included.
	ContextChars int `json:"context_chars"`
	// Analysis is the lexical analysis of the query.
	Analysis QueryAnalysis `json:"analysis"`
	// Expansions are synonym variants of the query. They are not used for scoring.
	Expansions []string `json:"expansions,omitempty"`
}

// AskRequest represents a question to answer from the indexed documents.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse represents an answer with the retrieval evidence behind it.
type AskResponse struct {
	Answer          string    `json:"answer"`
	Sources         []string  `json:"sources"`
	RelevanceScores []float64 `json:"relevance_scores"`
	ChunksFound     int       `json:"chunks_found"`
	SearchQuality   string    `json:"search_quality"`
}

// Strategy labels reported in ScoredChunk.Strategies.
const (
	StrategyKeywords        = "keywords"
	StrategyNumbers         = "numbers"
	StrategyPhrases         = "phrases"
	StrategySemanticInvalid = "semantic_invalid"
)

// Search quality labels derived from the best context score.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityFair      = "fair"
	QualityNone      = "none"
)
