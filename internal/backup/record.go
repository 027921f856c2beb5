package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rosehollow/cookbook/backend/internal/recipes"
)

// SourceDatabaseTag marks where a backup copy originated.
const SourceDatabaseTag = "primary_supabase"

// Record is the denormalized wire shape stored in the backup table: the
// recipe fields plus provenance. id belongs to the backup store; original_id
// is the join key back to the primary store. Records are superseded wholesale
// on each full backup, never merged.
type Record struct {
	ID              int64                   `json:"id,omitempty"`
	OriginalID      int64                   `json:"original_id"`
	Title           string                  `json:"title"`
	Time            string                  `json:"time"`
	ImageURL        string                  `json:"image_url"`
	Difficulty      string                  `json:"difficulty"`
	Tags            []string                `json:"tags"`
	Timeline        []recipes.TimelineEntry `json:"timeline"`
	Ingredients     []recipes.Ingredient    `json:"ingredients"`
	Instructions    []string                `json:"instructions"`
	BackupCreatedAt string                  `json:"backup_created_at"`
	BackupUpdatedAt string                  `json:"backup_updated_at"`
	SourceDatabase  string                  `json:"source_database"`
}

// EncodeRecord maps a recipe to its backup copy, stamped at now.
func EncodeRecord(recipe recipes.Recipe, now time.Time) Record {
	wire := recipes.ToWire(recipe)
	stamp := now.UTC().Format(time.RFC3339)
	return Record{
		OriginalID:      recipe.ID,
		Title:           wire.Title,
		Time:            wire.Time,
		ImageURL:        wire.ImageURL,
		Difficulty:      wire.Difficulty,
		Tags:            wire.Tags,
		Timeline:        wire.Timeline,
		Ingredients:     wire.Ingredients,
		Instructions:    wire.Instructions,
		BackupCreatedAt: stamp,
		BackupUpdatedAt: stamp,
		SourceDatabase:  SourceDatabaseTag,
	}
}

// DecodeRecord maps one raw backup row back to a recipe, stripping the
// provenance fields so the result can be handed straight to the primary
// store. The recipe id is cleared; the primary store assigns a fresh one on
// restore.
func DecodeRecord(raw json.RawMessage) (recipes.Recipe, error) {
	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return recipes.Recipe{}, fmt.Errorf("backup: decode record: %w", err)
	}
	recipe := recipes.FromWire(recipes.WireRecipe{
		Title:        record.Title,
		Time:         record.Time,
		ImageURL:     record.ImageURL,
		Tags:         record.Tags,
		Difficulty:   record.Difficulty,
		Timeline:     record.Timeline,
		Ingredients:  record.Ingredients,
		Instructions: record.Instructions,
	})
	recipe.ID = 0
	return recipe, nil
}
