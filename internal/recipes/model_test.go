package recipes

import (
	"encoding/json"
	"errors"
	"testing"
)

func completeRecipe() Recipe {
	return Recipe{
		Title:      "Tomato Soup",
		Time:       "00:45",
		Tags:       []string{"Dinner"},
		Difficulty: DifficultyTwoStars,
		Timeline: []TimelineEntry{
			{Step: "Prep", Time: "00:15"},
			{Step: "Simmer", Time: "00:30"},
		},
		Ingredients: []Ingredient{
			StructuredIngredient("6", "", "ripe tomatoes"),
			StructuredIngredient("1", "cup", "vegetable stock"),
		},
		Instructions: []string{"Chop tomatoes.", "Simmer with stock and blend."},
	}
}

func TestValidateCompleteness(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(r *Recipe)
		expectOK bool
	}{
		{
			name:     "complete recipe",
			mutate:   func(*Recipe) {},
			expectOK: true,
		},
		{
			name:   "missing title",
			mutate: func(r *Recipe) { r.Title = "  " },
		},
		{
			name:   "missing difficulty",
			mutate: func(r *Recipe) { r.Difficulty = "" },
		},
		{
			name:   "missing time",
			mutate: func(r *Recipe) { r.Time = "" },
		},
		{
			name:   "legacy free-text time",
			mutate: func(r *Recipe) { r.Time = "45 mins" },
		},
		{
			name:   "empty timeline",
			mutate: func(r *Recipe) { r.Timeline = nil },
		},
		{
			name:   "no ingredients",
			mutate: func(r *Recipe) { r.Ingredients = nil },
		},
		{
			name:   "only blank ingredients",
			mutate: func(r *Recipe) { r.Ingredients = []Ingredient{StructuredIngredient("1", "cup", "  "), LegacyIngredient("")} },
		},
		{
			name:   "no instructions",
			mutate: func(r *Recipe) { r.Instructions = nil },
		},
		{
			name:     "blank ingredient among valid ones",
			mutate:   func(r *Recipe) { r.Ingredients = append(r.Ingredients, LegacyIngredient(" ")) },
			expectOK: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			recipe := completeRecipe()
			testCase.mutate(&recipe)

			err := recipe.Validate()
			if testCase.expectOK && err != nil {
				t.Fatalf("Validate returned error: %v", err)
			}
			if !testCase.expectOK {
				if err == nil {
					t.Fatal("Validate succeeded, want error")
				}
				if !errors.Is(err, ErrIncompleteRecipe) {
					t.Fatalf("error = %v, want ErrIncompleteRecipe", err)
				}
			}
		})
	}
}

func TestValidTimeFormat(t *testing.T) {
	valid := []string{"00:30", "0:05", "12:00", "23:59", "9:45"}
	for _, value := range valid {
		if !ValidTimeFormat(value) {
			t.Errorf("ValidTimeFormat(%q) = false, want true", value)
		}
	}

	invalid := []string{"", "24:00", "12:60", "45 mins", "2 hours", "12:5", "1230"}
	for _, value := range invalid {
		if ValidTimeFormat(value) {
			t.Errorf("ValidTimeFormat(%q) = true, want false", value)
		}
	}
}

func TestIngredientJSONVariants(t *testing.T) {
	structured := StructuredIngredient("2", "cups", "flour")
	encoded, err := json.Marshal(structured)
	if err != nil {
		t.Fatalf("Marshal structured: %v", err)
	}
	if string(encoded) != `{"quantity":"2","unit":"cups","ingredient":"flour"}` {
		t.Errorf("structured JSON = %s", encoded)
	}

	legacy := LegacyIngredient("a pinch of salt")
	encoded, err = json.Marshal(legacy)
	if err != nil {
		t.Fatalf("Marshal legacy: %v", err)
	}
	if string(encoded) != `"a pinch of salt"` {
		t.Errorf("legacy JSON = %s", encoded)
	}

	var decoded Ingredient
	if err := json.Unmarshal([]byte(`{"quantity":"1","unit":"tsp","ingredient":"vanilla"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal structured: %v", err)
	}
	if decoded.Legacy || decoded.Name != "vanilla" {
		t.Errorf("decoded structured = %+v", decoded)
	}

	if err := json.Unmarshal([]byte(`"3 eggs"`), &decoded); err != nil {
		t.Fatalf("Unmarshal legacy: %v", err)
	}
	if !decoded.Legacy || decoded.Text != "3 eggs" {
		t.Errorf("decoded legacy = %+v", decoded)
	}
}

func TestIngredientString(t *testing.T) {
	if got := StructuredIngredient("2", "cups", "flour").String(); got != "2 cups flour" {
		t.Errorf("String = %q", got)
	}
	if got := StructuredIngredient("", "", "Toppings of choice").String(); got != "Toppings of choice" {
		t.Errorf("String = %q", got)
	}
	if got := LegacyIngredient("a pinch of salt").String(); got != "a pinch of salt" {
		t.Errorf("String = %q", got)
	}
}

func TestDifficultyKnown(t *testing.T) {
	for _, difficulty := range []Difficulty{DifficultyOneStar, DifficultyTwoStars, DifficultyThreeStars, DifficultyFourStars, DifficultyFiveStars} {
		if !difficulty.Known() {
			t.Errorf("Known(%q) = false", difficulty)
		}
	}
	if Difficulty("easy").Known() {
		t.Error("Known(easy) = true, want false")
	}
}
