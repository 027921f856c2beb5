package recipes

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Difficulty is the star-rating label attached to every recipe.
type Difficulty string

const (
	DifficultyOneStar    Difficulty = "★☆☆☆☆"
	DifficultyTwoStars   Difficulty = "★★☆☆☆"
	DifficultyThreeStars Difficulty = "★★★☆☆"
	DifficultyFourStars  Difficulty = "★★★★☆"
	DifficultyFiveStars  Difficulty = "★★★★★"

	// DefaultDifficulty is substituted when a stored record carries none.
	DefaultDifficulty = DifficultyTwoStars
)

// Known reports whether the label is one of the fixed rating values.
func (d Difficulty) Known() bool {
	switch d {
	case DifficultyOneStar, DifficultyTwoStars, DifficultyThreeStars, DifficultyFourStars, DifficultyFiveStars:
		return true
	}
	return false
}

// TimelineEntry is the duration of one named cooking phase.
type TimelineEntry struct {
	Step string `json:"step"`
	Time string `json:"time"`
}

// Ingredient is a tagged variant: either a structured quantity/unit/name
// triple, or a legacy free-text line carried over from older exports where the
// whole ingredient was one string.
type Ingredient struct {
	Quantity string
	Unit     string
	Name     string

	Legacy bool
	Text   string
}

// StructuredIngredient builds the quantity/unit/name form.
func StructuredIngredient(quantity, unit, name string) Ingredient {
	return Ingredient{Quantity: quantity, Unit: unit, Name: name}
}

// LegacyIngredient wraps a plain ingredient line.
func LegacyIngredient(text string) Ingredient {
	return Ingredient{Legacy: true, Text: text}
}

// Valid reports whether the entry carries a usable ingredient name.
func (i Ingredient) Valid() bool {
	if i.Legacy {
		return strings.TrimSpace(i.Text) != ""
	}
	return strings.TrimSpace(i.Name) != ""
}

// String renders the ingredient as a single display line.
func (i Ingredient) String() string {
	if i.Legacy {
		return i.Text
	}
	parts := make([]string, 0, 3)
	if i.Quantity != "" {
		parts = append(parts, i.Quantity)
	}
	if i.Unit != "" {
		parts = append(parts, i.Unit)
	}
	parts = append(parts, i.Name)
	return strings.Join(parts, " ")
}

type structuredIngredientJSON struct {
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Name     string `json:"ingredient"`
}

// MarshalJSON emits the wire shape matching the variant: a JSON string for the
// legacy form, an object otherwise.
func (i Ingredient) MarshalJSON() ([]byte, error) {
	if i.Legacy {
		return json.Marshal(i.Text)
	}
	return json.Marshal(structuredIngredientJSON{
		Quantity: i.Quantity,
		Unit:     i.Unit,
		Name:     i.Name,
	})
}

// UnmarshalJSON accepts both the structured object and the legacy string form.
func (i *Ingredient) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*i = LegacyIngredient(text)
		return nil
	}
	var structured structuredIngredientJSON
	if err := json.Unmarshal(data, &structured); err != nil {
		return err
	}
	*i = StructuredIngredient(structured.Quantity, structured.Unit, structured.Name)
	return nil
}

// Recipe is the in-memory entity the repository and synchronizer operate on.
// ID is zero until the primary store assigns one on first create.
type Recipe struct {
	ID           int64           `json:"id,omitempty"`
	Title        string          `json:"title"`
	Time         string          `json:"time"`
	Image        string          `json:"image,omitempty"`
	Tags         []string        `json:"tags"`
	Difficulty   Difficulty      `json:"difficulty"`
	Timeline     []TimelineEntry `json:"timeline"`
	Ingredients  []Ingredient    `json:"ingredients"`
	Instructions []string        `json:"instructions"`
}

// ErrIncompleteRecipe indicates the completeness invariant failed before any
// network call was made.
var ErrIncompleteRecipe = errors.New("recipes: incomplete recipe")

var canonicalTimePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidTimeFormat reports whether the value is a canonical HH:MM duration.
// Legacy free-text durations ("45 mins") fail this check; they are tolerated
// on read but never accepted on write.
func ValidTimeFormat(value string) bool {
	return canonicalTimePattern.MatchString(value)
}

// Validate enforces the completeness invariant: title, canonical time,
// difficulty, and at least one timeline entry, ingredient, and instruction.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrIncompleteRecipe)
	}
	if strings.TrimSpace(string(r.Difficulty)) == "" {
		return fmt.Errorf("%w: missing difficulty", ErrIncompleteRecipe)
	}
	if strings.TrimSpace(r.Time) == "" {
		return fmt.Errorf("%w: missing time", ErrIncompleteRecipe)
	}
	if !ValidTimeFormat(r.Time) {
		return fmt.Errorf("%w: time %q is not in HH:MM format", ErrIncompleteRecipe, r.Time)
	}
	if len(r.Timeline) == 0 {
		return fmt.Errorf("%w: at least one timeline step required", ErrIncompleteRecipe)
	}
	validIngredients := 0
	for _, ingredient := range r.Ingredients {
		if ingredient.Valid() {
			validIngredients++
		}
	}
	if validIngredients == 0 {
		return fmt.Errorf("%w: at least one ingredient required", ErrIncompleteRecipe)
	}
	if len(r.Instructions) == 0 {
		return fmt.Errorf("%w: at least one instruction required", ErrIncompleteRecipe)
	}
	return nil
}
