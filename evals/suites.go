// Package evals checks how well a tool selector (an LLM, or the keyword
// baseline) maps natural language cooking requests to the recipe tools
// and their arguments.
package evals

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
)

// Suite file names, relative to a suite directory.
const (
	ToolSelectionFile  = "tool_selection.json"
	ConfusionPairsFile = "confusion_pairs.json"
	ArgumentsFile      = "argument_correctness.json"
)

//go:embed suites/*.json
var bundled embed.FS

// ToolSelectionTest is one request and the tool it should route to.
type ToolSelectionTest struct {
	ID           string         `json:"id"`
	Category     string         `json:"category"`
	Input        string         `json:"input"`
	ExpectedTool string         `json:"expected_tool"`
	ExpectedArgs map[string]any `json:"expected_args,omitempty"`
	NotTools     []string       `json:"not_tools,omitempty"`
}

// ToolSelectionSuite groups tool selection tests.
type ToolSelectionSuite struct {
	Name        string              `json:"name"`
	Version     string              `json:"version"`
	Description string              `json:"description"`
	Tests       []ToolSelectionTest `json:"tests"`
}

// ConfusionPairTest is a request that sits between two similar tools.
type ConfusionPairTest struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Reason   string `json:"reason"`
}

// ConfusionPair names tools that are easy to mix up and how to tell them apart.
type ConfusionPair struct {
	ID             string              `json:"id"`
	Tools          []string            `json:"tools"`
	Disambiguation string              `json:"disambiguation"`
	Tests          []ConfusionPairTest `json:"tests"`
}

// ConfusionPairSuite groups confusion pairs.
type ConfusionPairSuite struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Pairs       []ConfusionPair `json:"pairs"`
}

// ArgumentTest checks the arguments extracted for a request.
type ArgumentTest struct {
	ID            string         `json:"id"`
	Tool          string         `json:"tool"`
	Input         string         `json:"input"`
	RequiredArgs  []string       `json:"required_args,omitempty"`
	ExpectedArgs  map[string]any `json:"expected_args,omitempty"`
	ForbiddenArgs []string       `json:"forbidden_args,omitempty"`
	ArgNotes      string         `json:"arg_notes,omitempty"`
}

// ArgumentRules documents conventions the argument tests assume.
type ArgumentRules struct {
	DishNameFormat   string `json:"dish_name_format"`
	LetterFormat     string `json:"letter_format"`
	RecipeIDFormat   string `json:"recipe_id_format"`
	MaxResultsPolicy string `json:"max_results_policy"`
}

// ArgumentSuite groups argument correctness tests.
type ArgumentSuite struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Tests       []ArgumentTest `json:"tests"`
	Rules       ArgumentRules  `json:"validation_rules"`
}

// Suites holds one of each suite.
type Suites struct {
	ToolSelection  *ToolSelectionSuite
	ConfusionPairs *ConfusionPairSuite
	Arguments      *ArgumentSuite
}

func decode[T any](fsys fs.FS, name string) (*T, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	var suite T
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	return &suite, nil
}

func loadFile[T any](path string) (*T, error) {
	return decode[T](os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// LoadToolSelectionSuite loads tool selection tests from a JSON file.
func LoadToolSelectionSuite(path string) (*ToolSelectionSuite, error) {
	return loadFile[ToolSelectionSuite](path)
}

// LoadConfusionPairSuite loads confusion pair tests from a JSON file.
func LoadConfusionPairSuite(path string) (*ConfusionPairSuite, error) {
	return loadFile[ConfusionPairSuite](path)
}

// LoadArgumentSuite loads argument correctness tests from a JSON file.
func LoadArgumentSuite(path string) (*ArgumentSuite, error) {
	return loadFile[ArgumentSuite](path)
}

// LoadDir loads all three suites from a directory.
func LoadDir(dir string) (*Suites, error) {
	return loadFS(os.DirFS(dir))
}

// Bundled returns the suites compiled into the binary.
func Bundled() (*Suites, error) {
	sub, err := fs.Sub(bundled, "suites")
	if err != nil {
		return nil, err
	}
	return loadFS(sub)
}

func loadFS(fsys fs.FS) (*Suites, error) {
	ts, err := decode[ToolSelectionSuite](fsys, ToolSelectionFile)
	if err != nil {
		return nil, fmt.Errorf("loading tool selection: %w", err)
	}
	cp, err := decode[ConfusionPairSuite](fsys, ConfusionPairsFile)
	if err != nil {
		return nil, fmt.Errorf("loading confusion pairs: %w", err)
	}
	args, err := decode[ArgumentSuite](fsys, ArgumentsFile)
	if err != nil {
		return nil, fmt.Errorf("loading arguments: %w", err)
	}
	return &Suites{ToolSelection: ts, ConfusionPairs: cp, Arguments: args}, nil
}

// UnknownTools returns every tool named by the suites that is not in
// known, sorted and deduplicated.
func (s *Suites) UnknownTools(known []string) []string {
	seen := make(map[string]bool)
	check := func(name string) {
		if name != "" && !slices.Contains(known, name) {
			seen[name] = true
		}
	}

	if s.ToolSelection != nil {
		for _, t := range s.ToolSelection.Tests {
			check(t.ExpectedTool)
			for _, n := range t.NotTools {
				check(n)
			}
		}
	}
	if s.ConfusionPairs != nil {
		for _, p := range s.ConfusionPairs.Pairs {
			for _, n := range p.Tools {
				check(n)
			}
			for _, t := range p.Tests {
				check(t.Expected)
			}
		}
	}
	if s.Arguments != nil {
		for _, t := range s.Arguments.Tests {
			check(t.Tool)
		}
	}

	unknown := make([]string, 0, len(seen))
	for name := range seen {
		unknown = append(unknown, name)
	}
	sort.Strings(unknown)
	return unknown
}

// ValidateToolNames fails when a suite references a tool that is not registered.
func (s *Suites) ValidateToolNames(known []string) error {
	if unknown := s.UnknownTools(known); len(unknown) > 0 {
		return fmt.Errorf("suites reference unregistered tools: %v", unknown)
	}
	return nil
}
