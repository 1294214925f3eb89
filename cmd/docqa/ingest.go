package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"docqa/internal/extract"
	"docqa/internal/service"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Upload and index documents",
	Long: `Upload and index files or directories. Directories are scanned recursively for
.txt, .md, .docx and .pdf files. Each file is reported on its own; one failure does not
stop the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		files, err := extract.Scan(ctx, args...)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no supported documents found (supported: %v)", extract.SupportedExtensions)
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = a.Close()
		}()

		var total service.UploadResult
		for start := 0; start < len(files); start += service.MaxUploadFiles {
			batch, skipped, err := readBatch(files[start:min(start+service.MaxUploadFiles, len(files))])
			if err != nil {
				return err
			}
			total.Files = append(total.Files, skipped...)
			total.Failed += len(skipped)
			if len(batch) == 0 {
				continue
			}
			res, err := a.DocumentService.Upload(ctx, batch)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			total.Files = append(total.Files, res.Files...)
			total.Succeeded += res.Succeeded
			total.Failed += res.Failed
			total.TotalVectors = res.TotalVectors
		}

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), total); err != nil {
				return err
			}
		} else {
			printUploadResult(cmd.OutOrStdout(), total)
		}
		if total.Succeeded == 0 {
			return fmt.Errorf("no document was ingested")
		}
		return nil
	},
}

// readBatch loads the files to upload. Files over the upload size limit are
// returned as failed results instead, since the service rejects them per request.
func readBatch(files []extract.ScannedFile) ([]service.UploadFile, []service.FileResult, error) {
	out := make([]service.UploadFile, 0, len(files))
	var skipped []service.FileResult
	for _, f := range files {
		info, err := os.Stat(f.AbsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to access %s: %w", f.RelPath, err)
		}
		if info.Size() > service.MaxFileSize {
			skipped = append(skipped, service.FileResult{
				Name:    f.Name,
				Status:  service.StatusError,
				Message: fmt.Sprintf("file exceeds %d bytes", service.MaxFileSize),
			})
			continue
		}
		data, err := os.ReadFile(f.AbsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", f.RelPath, err)
		}
		out = append(out, service.UploadFile{Name: f.Name, Data: data})
	}
	return out, skipped, nil
}

func printUploadResult(w io.Writer, res service.UploadResult) {
	for _, f := range res.Files {
		if f.Status == service.StatusSuccess {
			fmt.Fprintf(w, "OK    %s (%d chunks, id %s)\n", f.Name, f.Chunks, f.DocumentID)
		} else {
			fmt.Fprintf(w, "FAIL  %s: %s\n", f.Name, f.Message)
		}
	}
	fmt.Fprintf(w, "\n%d succeeded, %d failed, %d vectors indexed\n", res.Succeeded, res.Failed, res.TotalVectors)
}
