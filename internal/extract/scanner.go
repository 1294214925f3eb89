package extract

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ScannedFile represents a supported document found on disk.
type ScannedFile struct {
	Name    string // Base file name (e.g., "manual-credito.docx")
	RelPath string // Path relative to the scanned root, forward slashes
	AbsPath string // Absolute file path
}

// Scan returns the supported documents under each path. A path may be a file
// or a directory; directories are walked recursively and hidden entries are skipped.
// Files passed explicitly must have a supported extension.
func Scan(ctx context.Context, paths ...string) ([]ScannedFile, error) {
	var files []ScannedFile

	for _, root := range paths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to access path %s: %w", root, err)
		}

		if !info.IsDir() {
			if !Supported(abs) {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, root)
			}
			files = append(files, ScannedFile{Name: filepath.Base(abs), RelPath: filepath.Base(abs), AbsPath: abs})
			continue
		}

		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("failed to access path %s: %w", path, err)
			}
			if path != abs && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !Supported(path) {
				return nil
			}

			relPath, err := filepath.Rel(abs, path)
			if err != nil {
				return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
			}
			files = append(files, ScannedFile{
				Name:    d.Name(),
				RelPath: filepath.ToSlash(relPath),
				AbsPath: path,
			})
			return nil
		})
		if err != nil {
			return files, fmt.Errorf("failed to scan %s: %w", root, err)
		}
	}

	return files, nil
}
