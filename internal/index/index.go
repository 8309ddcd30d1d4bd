// Package index maintains the recipe index: a map from recipe ID to the
// absolute path of the collection file that holds it. The index is persisted
// next to the collections, loaded lazily, and rebuilt from the collection
// files when it is missing, corrupt or points somewhere stale.
package index

import (
	"context"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/olgasafonova/mealdb-mcp-server/internal/infra"
	"github.com/olgasafonova/mealdb-mcp-server/internal/recipe"
	"github.com/olgasafonova/mealdb-mcp-server/metrics"
	"github.com/olgasafonova/mealdb-mcp-server/tracing"
)

// Lookup outcomes reported to metrics.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeStale    = "stale"
	OutcomeRepaired = "repaired"
)

// rebuildLimit bounds concurrent collection reads during a rebuild.
const rebuildLimit = 8

// Store is the persistence the index needs.
type Store interface {
	ListCollections() ([]string, error)
	CollectionPath(name string) string
	ReadCollectionAt(path string) (recipe.Collection, error)
	LoadIndex() (map[string]string, error)
	SaveIndex(idx map[string]string) error
}

// Index maps recipe IDs to collection files. It is safe for concurrent use.
type Index struct {
	store  Store
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]string
	loaded  bool
	// recorded holds ids recorded while a rebuild scan is running, so the
	// scan's result cannot drop them.
	recorded   map[string]string
	rebuilding bool

	persistMu sync.Mutex
	rebuilds  *infra.Deduplicator[map[string]string]
}

// New returns an empty, unloaded index over store.
func New(store Store, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		store:    store,
		logger:   logger,
		rebuilds: infra.NewDeduplicator[map[string]string](),
	}
}

// Load returns the index, reading the persisted file on first use. A missing
// or unreadable file triggers a rebuild. Load never fails.
func (i *Index) Load(ctx context.Context) map[string]string {
	i.mu.RLock()
	if i.loaded {
		snap := maps.Clone(i.entries)
		i.mu.RUnlock()
		return snap
	}
	i.mu.RUnlock()

	persisted, err := i.store.LoadIndex()
	if err != nil {
		i.logger.Info("Recipe index unavailable, rebuilding", "error", err)
		return i.Rebuild(ctx)
	}

	i.mu.Lock()
	if !i.loaded {
		i.entries = persisted
		i.loaded = true
		metrics.IndexEntries.Set(float64(len(persisted)))
	}
	snap := maps.Clone(i.entries)
	i.mu.Unlock()
	return snap
}

// Rebuild scans every collection file and replaces the index with the
// result. When an id appears in several collections, the collection whose
// name sorts last wins. Unreadable files are skipped. Concurrent calls share
// a single scan. The result is persisted; a failed save is logged only.
func (i *Index) Rebuild(ctx context.Context) map[string]string {
	idx, _, _ := i.rebuilds.Do(ctx, "rebuild", func() (map[string]string, error) {
		return i.rebuild(context.WithoutCancel(ctx)), nil
	})
	if idx == nil {
		// The wait was abandoned; answer from whatever is held.
		i.mu.RLock()
		defer i.mu.RUnlock()
		return maps.Clone(i.entries)
	}
	return maps.Clone(idx)
}

func (i *Index) rebuild(ctx context.Context) map[string]string {
	ctx, span := tracing.StartSpan(ctx, "index.rebuild")
	defer span.End()
	start := time.Now()

	i.mu.Lock()
	i.rebuilding = true
	i.recorded = make(map[string]string)
	i.mu.Unlock()

	names, err := i.store.ListCollections()
	if err != nil {
		tracing.RecordError(span, err)
		i.logger.Warn("Listing collections failed", "error", err)
	}
	sort.Strings(names)

	type scanned struct {
		path string
		ids  []string
	}
	tasks := make([]func(context.Context) (scanned, error), len(names))
	for n, name := range names {
		path := i.store.CollectionPath(name)
		tasks[n] = func(context.Context) (scanned, error) {
			coll, err := i.store.ReadCollectionAt(path)
			if err != nil {
				return scanned{}, err
			}
			return scanned{path: path, ids: coll.IDs()}, nil
		}
	}

	idx := make(map[string]string)
	for n, out := range infra.Gather(ctx, rebuildLimit, tasks) {
		if out.Err != nil {
			i.logger.Warn("Skipping unreadable collection", "collection", names[n], "error", out.Err)
			continue
		}
		for _, id := range out.Value.ids {
			idx[id] = out.Value.path
		}
	}

	i.mu.Lock()
	maps.Copy(idx, i.recorded)
	i.entries = idx
	i.loaded = true
	i.rebuilding = false
	i.recorded = nil
	snap := maps.Clone(idx)
	i.mu.Unlock()

	tracing.AddIndexAttributes(span, len(names), len(idx))
	metrics.RecordRebuild(time.Since(start).Seconds(), len(idx))
	i.logger.Debug("Rebuilt recipe index", "collections", len(names), "entries", len(idx))

	i.persist()
	return snap
}

// Lookup returns the indexed location of id. It loads the index if needed but
// never rebuilds it.
func (i *Index) Lookup(ctx context.Context, id string) (string, bool) {
	i.ensureLoaded(ctx)

	i.mu.RLock()
	loc, ok := i.entries[id]
	i.mu.RUnlock()

	if ok {
		metrics.RecordLookup(OutcomeHit)
	} else {
		metrics.RecordLookup(OutcomeMiss)
	}
	return loc, ok
}

// Repair verifies the indexed location of id and rebuilds the index when the
// entry is absent, its file is gone, or the file no longer holds id. It
// reports not-found if id is still absent after the rebuild.
func (i *Index) Repair(ctx context.Context, id string) (string, bool) {
	if loc, ok := i.Lookup(ctx, id); ok && i.holds(loc, id) {
		return loc, true
	}

	metrics.RecordLookup(OutcomeStale)
	idx := i.Rebuild(ctx)
	loc, ok := idx[id]
	if ok {
		metrics.RecordLookup(OutcomeRepaired)
	}
	return loc, ok
}

func (i *Index) holds(path, id string) bool {
	coll, err := i.store.ReadCollectionAt(path)
	if err != nil {
		return false
	}
	_, ok := coll[id]
	return ok
}

// Record points ids at location, typically right after the collection file
// at location was written, and persists the index. A failed save is logged
// only.
func (i *Index) Record(ctx context.Context, location string, ids ...string) {
	if len(ids) == 0 {
		return
	}
	i.ensureLoaded(ctx)

	i.mu.Lock()
	if i.entries == nil {
		i.entries = make(map[string]string)
	}
	for _, id := range ids {
		i.entries[id] = location
		if i.rebuilding {
			i.recorded[id] = location
		}
	}
	metrics.IndexEntries.Set(float64(len(i.entries)))
	i.mu.Unlock()

	i.persist()
}

// Len returns the number of entries currently held.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

func (i *Index) ensureLoaded(ctx context.Context) {
	i.mu.RLock()
	loaded := i.loaded
	i.mu.RUnlock()
	if !loaded {
		i.Load(ctx)
	}
}

// persist writes the current entries. Saves are serialized and each one
// snapshots under the lock, so the last write always carries the newest state.
func (i *Index) persist() {
	i.persistMu.Lock()
	defer i.persistMu.Unlock()

	i.mu.RLock()
	snap := maps.Clone(i.entries)
	i.mu.RUnlock()

	if err := i.store.SaveIndex(snap); err != nil {
		i.logger.Warn("Saving recipe index failed", "error", err)
	}
}
