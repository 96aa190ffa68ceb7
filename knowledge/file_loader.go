package knowledge

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultFilePatterns select the files a FileLoader reads from directories.
var DefaultFilePatterns = []string{"**.md", "**.txt", "**.html", "**.htm"}

// FileLoader reads local files. Directories are walked and filtered by
// Patterns, matched against slash separated paths relative to the directory.
// HTML files are reduced to their visible text.
type FileLoader struct {
	Paths    []string
	Patterns []string
}

// NewFileLoader creates a loader for paths with DefaultFilePatterns.
func NewFileLoader(paths ...string) *FileLoader {
	return &FileLoader{Paths: paths, Patterns: DefaultFilePatterns}
}

// Load reads every file in path order, directories in lexical order.
func (l *FileLoader) Load(ctx context.Context) ([]Document, error) {
	matchers := make([]glob.Glob, 0, len(l.Patterns))

	for _, p := range l.Patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", p, err)
		}

		matchers = append(matchers, g)
	}

	var docs []Document

	for _, root := range l.Paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			doc, err := readFile(root)
			if err != nil {
				return nil, err
			}

			docs = append(docs, doc)

			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}

			if !matchAny(matchers, filepath.ToSlash(rel)) {
				return nil
			}

			doc, err := readFile(path)
			if err != nil {
				return err
			}

			docs = append(docs, doc)

			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return docs, nil
}

func matchAny(matchers []glob.Glob, path string) bool {
	for _, m := range matchers {
		if m.Match(path) {
			return true
		}
	}

	return false
}

func readFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	content := string(data)

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		if content, err = ExtractText(strings.NewReader(content)); err != nil {
			return Document{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	return Document{
		ID:       path,
		Content:  content,
		Source:   path,
		Metadata: map[string]string{"path": path},
	}, nil
}
