// Package directory supplies the external talent directory that sourcing
// agents scan. The current backing is a YAML file refreshed on every read, so
// operators can edit the pool without restarting the worker.
package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// YAMLFile implements domain.ExternalCandidateSource over a YAML document of
// candidate profiles.
type YAMLFile struct {
	Path string
}

// NewYAMLFile constructs the source and validates the file parses.
func NewYAMLFile(path string) (*YAMLFile, error) {
	src := &YAMLFile{Path: path}
	if _, err := src.List(nil); err != nil {
		return nil, err
	}
	return src, nil
}

type candidateDoc struct {
	Candidates []domain.ExternalCandidate `yaml:"candidates"`
}

// List reads and parses the directory file. Profiles without an ID or name are
// dropped rather than failing the whole scan.
func (s *YAMLFile) List(_ domain.Context) ([]domain.ExternalCandidate, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("op=directory.list: %w", err)
	}
	var doc candidateDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("op=directory.list: parse %s: %w", s.Path, err)
	}

	out := make([]domain.ExternalCandidate, 0, len(doc.Candidates))
	for _, c := range doc.Candidates {
		if c.ID == "" || c.Name == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
