package recipes

import (
	"encoding/json"
	"fmt"
)

const (
	defaultTitle       = "Untitled Recipe"
	defaultTime        = "00:30"
	defaultInstruction = "No instructions provided."
)

// WireRecipe is the JSON field shape shared by the primary and backup stores:
// image is stored as image_url, and the nested collections are native JSON
// columns rather than string-encoded blobs.
type WireRecipe struct {
	ID           int64           `json:"id,omitempty"`
	Title        string          `json:"title"`
	Time         string          `json:"time"`
	ImageURL     string          `json:"image_url"`
	Tags         []string        `json:"tags"`
	Difficulty   string          `json:"difficulty"`
	Timeline     []TimelineEntry `json:"timeline"`
	Ingredients  []Ingredient    `json:"ingredients"`
	Instructions []string        `json:"instructions"`
}

// ToWire maps a recipe onto the store field shape. Nothing is defaulted on
// the write path; validation happens before encoding. A generated placeholder
// image is stripped so it is never written to a store.
func ToWire(r Recipe) WireRecipe {
	image := r.Image
	if IsPlaceholder(image) {
		image = ""
	}
	return WireRecipe{
		Title:        r.Title,
		Time:         r.Time,
		ImageURL:     image,
		Tags:         r.Tags,
		Difficulty:   string(r.Difficulty),
		Timeline:     r.Timeline,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
	}
}

// FromWire maps a stored record back to a recipe, substituting defaults for
// every absent optional field. A missing image gets the generated placeholder;
// that substitution is never written back to any store. Collections that are
// present but empty stay empty; only absent ones are defaulted.
func FromWire(w WireRecipe) Recipe {
	recipe := Recipe{
		ID:           w.ID,
		Title:        w.Title,
		Time:         w.Time,
		Image:        w.ImageURL,
		Tags:         w.Tags,
		Difficulty:   Difficulty(w.Difficulty),
		Timeline:     w.Timeline,
		Ingredients:  w.Ingredients,
		Instructions: w.Instructions,
	}
	if recipe.Title == "" {
		recipe.Title = defaultTitle
	}
	if recipe.Time == "" {
		recipe.Time = defaultTime
	}
	if recipe.Image == "" {
		recipe.Image = Placeholder(recipe.Title)
	}
	if recipe.Tags == nil {
		recipe.Tags = []string{}
	}
	if recipe.Difficulty == "" {
		recipe.Difficulty = DefaultDifficulty
	}
	if recipe.Timeline == nil {
		recipe.Timeline = DefaultTimeline()
	}
	if recipe.Ingredients == nil {
		recipe.Ingredients = DefaultIngredients()
	}
	if recipe.Instructions == nil {
		recipe.Instructions = []string{defaultInstruction}
	}
	return recipe
}

// DecodeRecord maps one raw store row to a recipe. Failures are scoped to the
// single record; callers skip and continue.
func DecodeRecord(raw json.RawMessage) (Recipe, error) {
	var wire WireRecipe
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Recipe{}, fmt.Errorf("recipes: decode record: %w", err)
	}
	return FromWire(wire), nil
}

// DefaultTimeline is the two-phase placeholder used when a record has none.
func DefaultTimeline() []TimelineEntry {
	return []TimelineEntry{
		{Step: "Prep", Time: "00:15"},
		{Step: "Cook", Time: "00:15"},
	}
}

// DefaultIngredients is the single-entry placeholder used when a record has none.
func DefaultIngredients() []Ingredient {
	return []Ingredient{StructuredIngredient("1", "cup", "ingredient")}
}
