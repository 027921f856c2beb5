package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rosehollow/cookbook/backend/internal/store"
	"go.uber.org/zap"
)

var (
	errMissingStore = errors.New("recipes: store client is required")

	// ErrNoRowReturned indicates a write succeeded but the store did not echo
	// the persisted row, so the assigned id is unknown.
	ErrNoRowReturned = errors.New("recipes: store returned no row")

	// ErrNotFound indicates the requested id is not in the collection.
	ErrNotFound = errors.New("recipes: recipe not found")
)

// RepositoryConfig describes the dependencies of the recipe repository.
type RepositoryConfig struct {
	Store  *store.Client
	Logger *zap.Logger
}

// Repository owns the in-memory ordered recipe collection and keeps it in
// sync with the primary store. All list mutations happen here; other
// components read copies via Snapshot and Get.
type Repository struct {
	store  *store.Client
	logger *zap.Logger

	mu      sync.Mutex
	recipes []Recipe
}

// NewRepository constructs a repository bound to the primary store.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{store: cfg.Store, logger: logger}, nil
}

// LoadAll reads every record ordered by ascending id, decodes each, and
// replaces the in-memory collection with the result. Records that fail to
// decode are logged and skipped; only a failed read aborts. An empty result
// set is not an error.
func (r *Repository) LoadAll(ctx context.Context) ([]Recipe, error) {
	rows, err := r.store.List(ctx, "?order=id.asc")
	if err != nil {
		return nil, fmt.Errorf("recipes: load all: %w", err)
	}

	loaded := make([]Recipe, 0, len(rows))
	for index, row := range rows {
		recipe, decodeErr := DecodeRecord(row)
		if decodeErr != nil {
			r.logger.Warn("skipping undecodable recipe record",
				zap.Int("index", index),
				zap.Error(decodeErr))
			continue
		}
		loaded = append(loaded, recipe)
	}

	r.mu.Lock()
	r.recipes = loaded
	r.mu.Unlock()

	return r.Snapshot(), nil
}

// Create validates the recipe, inserts it into the primary store, and appends
// the id-bearing result to the collection. On failure the collection is left
// untouched.
func (r *Repository) Create(ctx context.Context, recipe Recipe) (Recipe, error) {
	if err := recipe.Validate(); err != nil {
		return Recipe{}, err
	}

	rows, err := r.store.Insert(ctx, []WireRecipe{ToWire(recipe)})
	if err != nil {
		return Recipe{}, fmt.Errorf("recipes: create: %w", err)
	}
	if len(rows) == 0 {
		return Recipe{}, ErrNoRowReturned
	}

	var echoed struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(rows[0], &echoed); err != nil {
		return Recipe{}, fmt.Errorf("recipes: create: decode echoed row: %w", err)
	}
	recipe.ID = echoed.ID

	r.mu.Lock()
	r.recipes = append(r.recipes, recipe)
	r.mu.Unlock()

	r.logger.Info("recipe created", zap.Int64("id", recipe.ID), zap.String("title", recipe.Title))
	return recipe, nil
}

// Update patches the stored record and replaces the matching in-memory entry.
// The entry is resolved by id, never by a remembered position.
func (r *Repository) Update(ctx context.Context, id int64, recipe Recipe) (Recipe, error) {
	if err := recipe.Validate(); err != nil {
		return Recipe{}, err
	}

	if _, err := r.store.Update(ctx, fmt.Sprintf("?id=eq.%d", id), ToWire(recipe)); err != nil {
		return Recipe{}, fmt.Errorf("recipes: update: %w", err)
	}
	recipe.ID = id

	r.mu.Lock()
	replaced := false
	for index := range r.recipes {
		if r.recipes[index].ID == id {
			r.recipes[index] = recipe
			replaced = true
			break
		}
	}
	r.mu.Unlock()

	if !replaced {
		r.logger.Warn("updated recipe not present in memory", zap.Int64("id", id))
	}
	return recipe, nil
}

// Delete removes the record remotely and drops the matching in-memory entry.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.store.Delete(ctx, fmt.Sprintf("?id=eq.%d", id)); err != nil {
		return fmt.Errorf("recipes: delete: %w", err)
	}

	r.mu.Lock()
	for index := range r.recipes {
		if r.recipes[index].ID == id {
			r.recipes = append(r.recipes[:index], r.recipes[index+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.logger.Info("recipe deleted", zap.Int64("id", id))
	return nil
}

// Snapshot returns a copy of the current collection in load order.
func (r *Repository) Snapshot() []Recipe {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recipe, len(r.recipes))
	copy(out, r.recipes)
	return out
}

// Get resolves a recipe by id.
func (r *Repository) Get(id int64) (Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, recipe := range r.recipes {
		if recipe.ID == id {
			return recipe, nil
		}
	}
	return Recipe{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
}

// Len reports the size of the in-memory collection.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recipes)
}
