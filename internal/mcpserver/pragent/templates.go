package pragent

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

//go:embed templates/*.md
var builtinTemplates embed.FS

// Template is a pull request description template.
type Template struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Content  string `json:"content"`
}

var defaultTemplates = []struct{ file, kind string }{
	{"bug.md", "Bug Fix"},
	{"feature.md", "Feature"},
	{"docs.md", "Documentation"},
	{"refactor.md", "Refactor"},
	{"test.md", "Test"},
	{"performance.md", "Performance"},
	{"security.md", "Security"},
}

// typeMapping maps change types to template files. Unknown types use feature.md.
var typeMapping = map[string]string{
	"bug":           "bug.md",
	"fix":           "bug.md",
	"feature":       "feature.md",
	"enhancement":   "feature.md",
	"docs":          "docs.md",
	"documentation": "docs.md",
	"refactor":      "refactor.md",
	"cleanup":       "refactor.md",
	"test":          "test.md",
	"testing":       "test.md",
	"performance":   "performance.md",
	"optimization":  "performance.md",
	"security":      "security.md",
}

// LoadTemplates reads the templates from dir, or from the built-in set when
// dir is empty.
func LoadTemplates(dir string) ([]Template, error) {
	var fsys fs.FS = builtinTemplates

	prefix := "templates/"

	if dir != "" {
		fsys = os.DirFS(dir)
		prefix = ""
	}

	out := make([]Template, 0, len(defaultTemplates))

	for _, t := range defaultTemplates {
		b, err := fs.ReadFile(fsys, prefix+t.file)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", t.file, err)
		}

		out = append(out, Template{Filename: t.file, Type: t.kind, Content: string(b)})
	}

	return out, nil
}

// SelectTemplate picks the template matching changeType.
func SelectTemplate(templates []Template, changeType string) Template {
	file, ok := typeMapping[strings.ToLower(strings.TrimSpace(changeType))]
	if !ok {
		file = "feature.md"
	}

	for _, t := range templates {
		if t.Filename == file {
			return t
		}
	}

	return templates[0]
}
