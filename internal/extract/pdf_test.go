package extract

import (
	"context"
	"errors"
	"os"
	"testing"
)

type fakeRunner struct {
	output []byte
	err    error

	name    string
	args    []string
	content []byte
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.name = name
	r.args = args
	if len(args) >= 2 {
		r.content, _ = os.ReadFile(args[len(args)-2])
	}
	return r.output, r.err
}

func TestExtractor_ExtractPDF(t *testing.T) {
	pdf := []byte("%PDF-1.4 contenido")
	runner := &fakeRunner{output: []byte("Políticas de Crédito\n\nTasa anual: 18%.\n\n")}
	e := NewWithRunner(runner)

	got, err := e.Extract("politicas.pdf", pdf)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if want := "Políticas de Crédito\n\nTasa anual: 18%."; got != want {
		t.Errorf("Extract() = %q, want %q", got, want)
	}

	if runner.name != pdfTool {
		t.Errorf("ran %q, want %q", runner.name, pdfTool)
	}
	if n := len(runner.args); n == 0 || runner.args[n-1] != "-" {
		t.Errorf("args = %v, want output to stdout", runner.args)
	}
	if string(runner.content) != string(pdf) {
		t.Errorf("temp file content = %q, want %q", runner.content, pdf)
	}
	if _, err := os.Stat(runner.args[len(runner.args)-2]); !errors.Is(err, os.ErrNotExist) {
		t.Error("temp file should be removed after extraction")
	}
}

func TestExtractor_ExtractPDFErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		runErr  error
		wantErr error
	}{
		{"not a pdf", []byte("hola"), nil, ErrCorruptDocument},
		{"tool missing", []byte("%PDF-1.7"), ErrPDFToolNotFound, ErrUnsupportedFormat},
		{"tool failed", []byte("%PDF-1.7"), errors.New("Syntax Error: Couldn't find trailer dictionary"), ErrCorruptDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewWithRunner(&fakeRunner{err: tt.runErr})
			_, err := e.Extract("informe.pdf", tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Extract() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExecRunner_MissingTool(t *testing.T) {
	_, err := execRunner{}.Run(context.Background(), "docqa-no-such-tool")
	if !errors.Is(err, ErrPDFToolNotFound) {
		t.Errorf("Run() error = %v, want ErrPDFToolNotFound", err)
	}
}
