// Package labeling merges tabular feedback exports into one dataset the
// dashboard can load, filling in missing sentiment labels along the way.
package labeling

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SOURCE_COLUMN    = "source"
	SENTIMENT_COLUMN = "sentiment"
	TEXT_COLUMN      = "text"
)

// ColumnRename maps one input column to its name in the combined output.
type ColumnRename struct {
	From string
	To   string
}

// ColumnMap keeps renames in file order, which becomes the output column
// order.
type ColumnMap []ColumnRename

func (m *ColumnMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: columns must be a mapping of input to output names", node.Line)
	}
	out := make(ColumnMap, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		from := strings.ToLower(strings.TrimSpace(node.Content[i].Value))
		to := strings.ToLower(strings.TrimSpace(node.Content[i+1].Value))
		if from == "" || to == "" {
			return fmt.Errorf("line %d: empty column name", node.Content[i].Line)
		}
		out = append(out, ColumnRename{From: from, To: to})
	}
	*m = out
	return nil
}

type SourceFile struct {
	Path    string    `yaml:"file"`
	Source  string    `yaml:"source"`
	Columns ColumnMap `yaml:"columns"`
}

// Mapping describes how several exports combine into one file.
type Mapping struct {
	Output  string       `yaml:"output"`
	Label   *bool        `yaml:"label"`
	Sources []SourceFile `yaml:"sources"`
}

// ShouldLabel reports whether missing sentiment should be filled. Defaults to
// true.
func (m Mapping) ShouldLabel() bool {
	return m.Label == nil || *m.Label
}

func ParseMapping(r io.Reader) (Mapping, error) {
	var m Mapping
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return Mapping{}, fmt.Errorf("[Labeling] failed to parse mapping: %w", err)
	}
	if len(m.Sources) == 0 {
		return Mapping{}, fmt.Errorf("[Labeling] mapping lists no sources")
	}
	for i, src := range m.Sources {
		if src.Path == "" {
			return Mapping{}, fmt.Errorf("[Labeling] source %d has no file", i)
		}
		if len(src.Columns) == 0 {
			return Mapping{}, fmt.Errorf("[Labeling] source %s maps no columns", src.Path)
		}
	}
	return m, nil
}

// LoadMapping reads a mapping file. Relative source and output paths are
// resolved against the mapping's directory.
func LoadMapping(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("[Labeling] failed to open mapping: %w", err)
	}
	defer f.Close()

	m, err := ParseMapping(f)
	if err != nil {
		return Mapping{}, err
	}

	dir := filepath.Dir(path)
	for i := range m.Sources {
		if !filepath.IsAbs(m.Sources[i].Path) {
			m.Sources[i].Path = filepath.Join(dir, m.Sources[i].Path)
		}
	}
	if m.Output != "" && !filepath.IsAbs(m.Output) {
		m.Output = filepath.Join(dir, m.Output)
	}
	return m, nil
}
