// Package store persists recipe collections, meal plans, letter summaries and
// the recipe index as JSON files under a single recipes directory:
//
//	<root>/<collection>/recipes_info.json
//	<root>/meal_plans/<plan>.json
//	<root>/by_letter/letter_<l>_search.json
//	<root>/recipe_index.json
//
// Every file is written whole, through a temp file and a rename, so readers
// never observe a partial write.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/olgasafonova/mealdb-mcp-server/internal/errors"
	"github.com/olgasafonova/mealdb-mcp-server/internal/recipe"
	"github.com/olgasafonova/mealdb-mcp-server/metrics"
)

// Reserved names inside the recipes directory.
const (
	CollectionFile = "recipes_info.json"
	MealPlansDir   = "meal_plans"
	ByLetterDir    = "by_letter"
	IndexFile      = "recipe_index.json"

	reservedSuffix = "_dish"
	writeCheckFile = "write_test.txt"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store reads and writes the recipes directory.
type Store struct {
	root   string
	logger *slog.Logger
	locks  keyedMutex
}

// New returns a Store rooted at root. Nothing is created until Init or the
// first write.
func New(root string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Store{root: root, logger: logger}
}

// Root returns the absolute recipes directory.
func (s *Store) Root() string { return s.root }

// Status describes the recipes directory.
type Status struct {
	Root     string `json:"recipes_directory"`
	Exists   bool   `json:"recipes_dir_exists"`
	Writable bool   `json:"recipes_dir_is_writable"`
	Error    string `json:"error,omitempty"`
}

// Init creates the recipes directory and checks it is writable with a test
// file. Failures are reported in the Status rather than returned.
func (s *Store) Init() Status {
	st := Status{Root: s.root}
	if err := os.MkdirAll(s.root, dirPerm); err != nil {
		st.Error = apperrors.NewStorageError("mkdir", s.root, err).Error()
		s.logger.Warn("Recipes directory unavailable", "path", s.root, "error", err)
		return st
	}
	st.Exists = true

	check := filepath.Join(s.root, writeCheckFile)
	if err := os.WriteFile(check, []byte("test"), filePerm); err != nil {
		st.Error = apperrors.NewStorageError("write", check, err).Error()
		s.logger.Warn("Recipes directory is not writable", "path", s.root, "error", err)
		return st
	}
	_ = os.Remove(check)
	st.Writable = true
	return st
}

// Stat reports the directory state without creating anything.
func (s *Store) Stat() Status {
	st := Status{Root: s.root}
	info, err := os.Stat(s.root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			st.Error = err.Error()
		}
		return st
	}
	st.Exists = info.IsDir()
	st.Writable = st.Exists && writable(s.root)
	return st
}

func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".write-check-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

// dirName maps a collection name onto its directory, moving it out of the
// way of reserved names.
func dirName(name string) string {
	switch name {
	case MealPlansDir, ByLetterDir, IndexFile:
		return name + reservedSuffix
	}
	return name
}

func checkName(field, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return apperrors.NewValidationError(field, name, "must be a plain name without path separators")
	}
	return nil
}

// CollectionPath returns the file holding collection name.
func (s *Store) CollectionPath(name string) string {
	return filepath.Join(s.root, dirName(name), CollectionFile)
}

// WriteCollection merges recipes into collection name and writes the result.
// An unreadable existing file is treated as empty. Concurrent writers of the
// same collection are serialized.
func (s *Store) WriteCollection(name string, recipes []recipe.Recipe) (string, error) {
	if err := checkName("collection", name); err != nil {
		return "", err
	}
	path := s.CollectionPath(name)

	unlock := s.locks.Lock(path)
	defer unlock()

	coll, err := s.ReadCollectionAt(path)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Warn("Replacing unreadable collection", "path", path, "error", err)
		}
		coll = recipe.Collection{}
	}
	coll.Merge(recipes...)

	if err := s.writeJSON(path, coll); err != nil {
		metrics.RecordWrite("collection", false)
		return "", err
	}
	metrics.RecordWrite("collection", true)
	s.logger.Debug("Wrote collection", "collection", name, "recipes", len(coll))
	return path, nil
}

// ReadCollection reads collection name.
func (s *Store) ReadCollection(name string) (recipe.Collection, error) {
	if err := checkName("collection", name); err != nil {
		return nil, err
	}
	return s.ReadCollectionAt(s.CollectionPath(name))
}

// ReadCollectionAt reads the collection file at path. A missing file is a
// NotFoundError; a corrupt one is a StorageError.
func (s *Store) ReadCollectionAt(path string) (recipe.Collection, error) {
	var coll recipe.Collection
	if err := readJSON(path, "collection", &coll); err != nil {
		return nil, err
	}
	if coll == nil {
		coll = recipe.Collection{}
	}
	// Files written before ids were stored in records carry them only as keys.
	for id, r := range coll {
		if r.ID == "" {
			r.ID = id
			coll[id] = r
		}
	}
	return coll, nil
}

// ListCollections returns the sorted names of directories holding a
// collection file. Reserved directories are skipped.
func (s *Store) ListCollections() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("list", s.root, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == MealPlansDir || e.Name() == ByLetterDir {
			continue
		}
		if info, err := os.Stat(filepath.Join(s.root, e.Name(), CollectionFile)); err == nil && info.Mode().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// MealPlanPath returns the file for the plan with the given file stem.
func (s *Store) MealPlanPath(stem string) string {
	return filepath.Join(s.root, MealPlansDir, stem+".json")
}

// WriteMealPlan writes plan under the sanitized form of its name, replacing
// any plan with the same stem.
func (s *Store) WriteMealPlan(plan recipe.MealPlan) (string, error) {
	path := s.MealPlanPath(recipe.PlanFileStem(plan.PlanName))
	if err := s.writeJSON(path, plan); err != nil {
		metrics.RecordWrite("meal_plan", false)
		return "", err
	}
	metrics.RecordWrite("meal_plan", true)
	return path, nil
}

// ReadMealPlan reads the plan with the given file stem.
func (s *Store) ReadMealPlan(stem string) (recipe.MealPlan, error) {
	var plan recipe.MealPlan
	if err := checkName("meal_plan", stem); err != nil {
		return plan, err
	}
	err := readJSON(s.MealPlanPath(stem), "meal_plan", &plan)
	return plan, err
}

// ListMealPlans returns the sorted file stems of saved plans.
func (s *Store) ListMealPlans() ([]string, error) {
	dir := filepath.Join(s.root, MealPlansDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError("list", dir, err)
	}

	var stems []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".json") {
			stems = append(stems, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	return stems, nil
}

// LetterSummaryPath returns the summary file for letter.
func (s *Store) LetterSummaryPath(letter string) string {
	return filepath.Join(s.root, ByLetterDir, fmt.Sprintf("letter_%s_search.json", strings.ToLower(letter)))
}

// WriteLetterSummary writes the summary of a first-letter search.
func (s *Store) WriteLetterSummary(sum recipe.LetterSummary) (string, error) {
	path := s.LetterSummaryPath(sum.Letter)
	if err := s.writeJSON(path, sum); err != nil {
		metrics.RecordWrite("letter", false)
		return "", err
	}
	metrics.RecordWrite("letter", true)
	return path, nil
}

// IndexPath returns the persisted index file.
func (s *Store) IndexPath() string {
	return filepath.Join(s.root, IndexFile)
}

// LoadIndex reads the persisted recipe index.
func (s *Store) LoadIndex() (map[string]string, error) {
	var idx map[string]string
	if err := readJSON(s.IndexPath(), "index", &idx); err != nil {
		return nil, err
	}
	if idx == nil {
		idx = map[string]string{}
	}
	return idx, nil
}

// SaveIndex replaces the persisted recipe index.
func (s *Store) SaveIndex(idx map[string]string) error {
	path := s.IndexPath()
	unlock := s.locks.Lock(path)
	defer unlock()

	err := s.writeJSON(path, idx)
	metrics.RecordWrite("index", err == nil)
	return err
}

func readJSON(path, entity string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.NewNotFoundError(entity, path)
		}
		return apperrors.NewStorageError("read", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewStorageError("decode", path, err)
	}
	return nil
}

// writeJSON encodes v with two-space indentation and atomically replaces path.
func (s *Store) writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return apperrors.NewStorageError("encode", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return apperrors.NewStorageError("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.NewStorageError("write", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		cleanup()
		return apperrors.NewStorageError("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return apperrors.NewStorageError("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return apperrors.NewStorageError("write", path, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		s.logger.Debug("chmod temp file failed", "path", tmpName, "error", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return apperrors.NewStorageError("rename", path, err)
	}
	return nil
}
