package storage

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"docqa/internal/vectorstore"
)

func testChunks(documentID string, n int) []vectorstore.Chunk {
	chunks := make([]vectorstore.Chunk, n)
	for i := range chunks {
		chunks[i] = vectorstore.Chunk{
			ID:           fmt.Sprintf("%s-%d", documentID, i),
			DocumentID:   documentID,
			DocumentName: documentID + ".txt",
			Text:         fmt.Sprintf("texto %d", i),
			Embedding:    []float32{float32(i), 0.5, -1.25},
			ChunkIndex:   i,
		}
	}
	return chunks
}

func TestChunkRepo_SaveAndLoad(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	createTestDocument(t, docs, "b", "b.txt", time.Now().UTC())
	createTestDocument(t, docs, "a", "a.txt", time.Now().UTC())

	// Saved out of order; LoadAll sorts by document then index.
	if err := repo.SaveChunks(ctx, testChunks("b", 2)); err != nil {
		t.Fatalf("SaveChunks() error = %v", err)
	}
	if err := repo.SaveChunks(ctx, testChunks("a", 3)); err != nil {
		t.Fatalf("SaveChunks() error = %v", err)
	}

	got, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	want := append(testChunks("a", 3), testChunks("b", 2)...)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadAll() = %+v, want %+v", got, want)
	}
}

func TestChunkRepo_SaveChunksAtomic(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	ctx := context.Background()
	createTestDocument(t, docs, "a", "a.txt", time.Now().UTC())

	chunks := testChunks("a", 3)
	chunks[2].ID = chunks[0].ID

	if err := repo.SaveChunks(ctx, chunks); err == nil {
		t.Fatal("SaveChunks() expected error for duplicate ID")
	}
	got, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("SaveChunks() left %d chunks after failure", len(got))
	}
}

func TestChunkRepo_SaveChunksRequiresDocument(t *testing.T) {
	repo := NewChunkRepo(newTestDB(t))

	if err := repo.SaveChunks(context.Background(), testChunks("ghost", 1)); err == nil {
		t.Error("SaveChunks() expected foreign key error")
	}
}

func TestChunkRepo_DeleteByDocument(t *testing.T) {
	db := newTestDB(t)
	docs := NewDocumentRepo(db)
	repo := NewChunkRepo(db)
	ctx := context.Background()

	createTestDocument(t, docs, "a", "a.txt", time.Now().UTC())
	createTestDocument(t, docs, "b", "b.txt", time.Now().UTC())
	if err := repo.SaveChunks(ctx, append(testChunks("a", 2), testChunks("b", 1)...)); err != nil {
		t.Fatalf("SaveChunks() error = %v", err)
	}

	if err := repo.DeleteByDocument(ctx, "a"); err != nil {
		t.Fatalf("DeleteByDocument() error = %v", err)
	}
	got, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(got) != 1 || got[0].DocumentID != "b" {
		t.Errorf("DeleteByDocument() remaining = %+v", got)
	}

	// Deleting a document without chunks is not an error.
	if err := repo.DeleteByDocument(ctx, "missing"); err != nil {
		t.Errorf("DeleteByDocument(missing) error = %v", err)
	}
}

func TestEmbeddingEncoding(t *testing.T) {
	vecs := [][]float32{
		{},
		{1},
		{0.1, -2.5, float32(math.Inf(1)), math.SmallestNonzeroFloat32},
	}
	for _, vec := range vecs {
		got, err := DecodeEmbedding(EncodeEmbedding(vec))
		if err != nil {
			t.Fatalf("DecodeEmbedding() error = %v", err)
		}
		if !reflect.DeepEqual(got, vec) {
			t.Errorf("round trip = %v, want %v", got, vec)
		}
	}

	if _, err := DecodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Error("DecodeEmbedding() expected error for truncated input")
	}
}
