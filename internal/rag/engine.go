package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"docqa/internal/contextutil"
)

const (
	// ContextSeparator joins chunk texts in the generation prompt.
	ContextSeparator = "\n\n---\n\n"
	// NoInformationAnswer is returned without calling the generator when nothing was retrieved.
	NoInformationAnswer = "No tengo esa información disponible en los documentos cargados."
)

// ErrEmptyQuestion is returned when Ask receives a blank question.
var ErrEmptyQuestion = errors.New("question cannot be empty")

// Generator produces an answer from a system prompt and the user's message.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// Corpus reports how many chunks are indexed.
type Corpus interface {
	Len() int
}

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question using RAG by retrieving relevant chunks and generating an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
}

type ragEngine struct {
	retriever *Retriever
	corpus    Corpus
	generator Generator
}

// NewEngine creates a new RAG engine.
func NewEngine(retriever *Retriever, corpus Corpus, generator Generator) Engine {
	return &ragEngine{
		retriever: retriever,
		corpus:    corpus,
		generator: generator,
	}
}

// Ask answers a question using RAG.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return AskResponse{}, ErrEmptyQuestion
	}

	logger.InfoContext(ctx, "RAG query started", "question", question)

	result, err := e.retriever.Retrieve(ctx, question, e.corpus.Len())
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return AskResponse{}, fmt.Errorf("failed to retrieve context: %w", err)
	}

	resp := AskResponse{
		Sources:         result.Sources,
		RelevanceScores: make([]float64, 0, len(result.Scores)),
		ChunksFound:     len(result.ContextChunks),
		SearchQuality:   SearchQuality(result.Scores),
	}
	for _, s := range result.Scores {
		resp.RelevanceScores = append(resp.RelevanceScores, math.Round(s*1000)/1000)
	}

	if len(result.ContextChunks) == 0 {
		logger.InfoContext(ctx, "no context retrieved, skipping generation")
		resp.Answer = NoInformationAnswer
		return resp, nil
	}

	texts := make([]string, len(result.ContextChunks))
	for i, c := range result.ContextChunks {
		texts[i] = c.Chunk.Text
	}
	prompt := BuildSystemPrompt(strings.Join(texts, ContextSeparator))

	answer, err := e.generator.Generate(ctx, prompt, question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate answer", "error", err)
		return AskResponse{}, fmt.Errorf("failed to generate answer: %w", err)
	}

	resp.Answer = CleanAnswer(answer)
	logger.InfoContext(ctx, "RAG query completed",
		"chunks_found", resp.ChunksFound,
		"sources", len(resp.Sources),
		"search_quality", resp.SearchQuality,
		"answer_length", len(resp.Answer),
	)
	return resp, nil
}

// BuildSystemPrompt renders the generation instructions around the retrieved context.
func BuildSystemPrompt(context string) string {
	var b strings.Builder
	b.WriteString("Eres un asistente experto que responde consultas sobre los documentos internos de la organización.\n\n")
	b.WriteString("Responde de forma directa y precisa usando exclusivamente la información del contexto.\n\n")
	b.WriteString("CONTEXTO:\n")
	b.WriteString(context)
	b.WriteString("\n\nINSTRUCCIONES:\n")
	b.WriteString("1. Lee todo el contexto antes de responder.\n")
	b.WriteString("2. No menciones fragmentos, documentos ni el contexto en la respuesta.\n")
	b.WriteString("3. Cita plazos, montos y tasas exactamente como aparecen.\n")
	b.WriteString("4. Si la información está repartida, combínala en una sola respuesta.\n")
	b.WriteString("5. Si la respuesta no está en el contexto, responde: \"No tengo esa información disponible\".\n")
	b.WriteString("6. Nunca inventes números ni datos.\n\n")
	b.WriteString("FORMATO:\n")
	b.WriteString("- Usa **negrita** solo para números y datos clave.\n")
	b.WriteString("- Usa listas numeradas para requisitos o pasos.\n")
	b.WriteString("- Usa viñetas (-) para características o beneficios.\n")
	return b.String()
}
