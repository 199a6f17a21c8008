// Package batch loads evaluation manifests and evaluates every sentence they
// list, producing the per-sentence results and the corpus summary.
package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RyanBlaney/tts-eval/internal/evaluation"
	"gopkg.in/yaml.v3"
)

// Default file extensions used when a sentence only names its id
const (
	DurationExtension = ".dur"
	F0Extension       = ".f0"
	LspExtension      = ".lsp"
)

var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest lists the sentences of one evaluation batch
type Manifest struct {
	Version      string     `yaml:"version" json:"version"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
	ReferenceDir string     `yaml:"reference_dir,omitempty" json:"reference_dir,omitempty"`
	TargetDir    string     `yaml:"target_dir,omitempty" json:"target_dir,omitempty"`
	Sentences    []Sentence `yaml:"sentences" json:"sentences"`

	// path the manifest was loaded from; relative directories resolve against it
	source string
}

// Sentence is one reference/target pair of the manifest
type Sentence struct {
	ID        string                   `yaml:"id" json:"id"`
	Reference evaluation.ParameterFiles `yaml:"reference,omitempty" json:"reference,omitempty"`
	Target    evaluation.ParameterFiles `yaml:"target,omitempty" json:"target,omitempty"`
	Lattice   []evaluation.LatticeNode  `yaml:"lattice,omitempty" json:"lattice,omitempty"`
}

// LoadManifest reads a YAML or JSON manifest, chosen by extension
func LoadManifest(filePath string) (*Manifest, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("manifest file does not exist: %w", err)
	}

	var (
		manifest *Manifest
		err      error
	)
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		manifest, err = loadManifestFromYAML(filePath)
	case ".json":
		manifest, err = loadManifestFromJSON(filePath)
	default:
		// Try YAML first, then JSON
		if manifest, err = loadManifestFromYAML(filePath); err != nil {
			manifest, err = loadManifestFromJSON(filePath)
		}
	}
	if err != nil {
		return nil, err
	}

	manifest.source = filePath
	manifest.ApplyDefaults()
	return manifest, nil
}

func readManifestFile(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return data, nil
}

func loadManifestFromYAML(filePath string) (*Manifest, error) {
	data, err := readManifestFile(filePath)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse YAML manifest: %w", err)
	}
	return &manifest, nil
}

func loadManifestFromJSON(filePath string) (*Manifest, error) {
	data, err := readManifestFile(filePath)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse JSON manifest: %w", err)
	}
	return &manifest, nil
}

// ApplyDefaults fills missing file paths from the sentence id and resolves
// relative paths against the base directories
func (m *Manifest) ApplyDefaults() {
	if m.Version == "" {
		m.Version = "1.0"
	}

	base := ""
	if m.source != "" {
		base = filepath.Dir(m.source)
	}
	refDir := resolve(base, m.ReferenceDir)
	tgtDir := resolve(base, m.TargetDir)

	for i := range m.Sentences {
		s := &m.Sentences[i]
		s.Reference = defaultFiles(s.Reference, refDir, s.ID)
		s.Target = defaultFiles(s.Target, tgtDir, s.ID)
	}
}

func resolve(base, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}

func defaultFiles(files evaluation.ParameterFiles, dir, id string) evaluation.ParameterFiles {
	fill := func(path, ext string) string {
		if path == "" {
			if id == "" {
				return ""
			}
			path = id + ext
		}
		return resolve(dir, path)
	}
	return evaluation.ParameterFiles{
		Duration: fill(files.Duration, DurationExtension),
		F0:       fill(files.F0, F0Extension),
		Lsp:      fill(files.Lsp, LspExtension),
	}
}

// Validate checks that every sentence names a complete file set
func (m *Manifest) Validate() error {
	if len(m.Sentences) == 0 {
		return fmt.Errorf("%w: no sentences", ErrInvalidManifest)
	}

	seen := make(map[string]int, len(m.Sentences))
	for i, s := range m.Sentences {
		if s.ID == "" {
			return fmt.Errorf("%w: sentence %d has no id", ErrInvalidManifest, i)
		}
		if prev, ok := seen[s.ID]; ok {
			return fmt.Errorf("%w: sentence id %q used by entries %d and %d", ErrInvalidManifest, s.ID, prev, i)
		}
		seen[s.ID] = i

		for side, files := range []evaluation.ParameterFiles{s.Reference, s.Target} {
			if files.Duration == "" || files.F0 == "" || files.Lsp == "" {
				return fmt.Errorf("%w: sentence %q has an incomplete %s file set", ErrInvalidManifest, s.ID, sideName(side))
			}
		}
		for j, node := range s.Lattice {
			if len(node.Candidates) == 0 {
				return fmt.Errorf("%w: sentence %q lattice node %d has no candidate", ErrInvalidManifest, s.ID, j)
			}
		}
	}
	return nil
}

func sideName(i int) string {
	if i == 0 {
		return "reference"
	}
	return "target"
}

// Inputs converts the manifest into evaluation inputs, indexed in order
func (m *Manifest) Inputs() []evaluation.SentenceInput {
	inputs := make([]evaluation.SentenceInput, len(m.Sentences))
	for i, s := range m.Sentences {
		inputs[i] = evaluation.SentenceInput{
			Index:     i,
			ID:        s.ID,
			Reference: s.Reference,
			Target:    s.Target,
			Lattice:   s.Lattice,
		}
	}
	return inputs
}

// GenerateExampleManifest writes an example manifest file
func GenerateExampleManifest(outputFile string) error {
	example := &Manifest{
		Version:      "1.0",
		Description:  "Example evaluation manifest",
		ReferenceDir: "natural",
		TargetDir:    "synthesized",
		Sentences: []Sentence{
			{ID: "0001"},
			{
				ID: "0002",
				Reference: evaluation.ParameterFiles{
					Duration: "labels/0002.dur",
					F0:       "f0/0002.f0",
					Lsp:      "lsp/0002.lsp",
				},
				Lattice: []evaluation.LatticeNode{
					{Candidates: []evaluation.Unit{{Phone: "sil", UnitID: 12}}},
					{Candidates: []evaluation.Unit{{Phone: "h", UnitID: 3051}}},
					{Candidates: []evaluation.Unit{{Phone: "a", UnitID: 871}}},
					{Candidates: []evaluation.Unit{{Phone: "sil", UnitID: 13}}},
				},
			},
		},
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal example manifest: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}
