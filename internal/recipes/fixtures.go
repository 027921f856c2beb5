package recipes

// Fixtures returns the three seed recipes that shipped with the original
// cookbook data set. The durations deliberately keep their historical
// free-text form, which read paths must tolerate.
func Fixtures() []Recipe {
	return []Recipe{
		{
			Title:      "Chocolate Chip Cookies",
			Time:       "45 mins",
			Tags:       []string{"Dessert", "Baking", "Sweet"},
			Difficulty: DifficultyTwoStars,
			Timeline: []TimelineEntry{
				{Step: "Prep", Time: "15 min"},
				{Step: "Bake", Time: "12 min"},
				{Step: "Cool", Time: "10 min"},
			},
			Ingredients: []Ingredient{
				StructuredIngredient("2¼", "cups", "all-purpose flour"),
				StructuredIngredient("1", "tsp", "baking soda"),
				StructuredIngredient("1", "tsp", "salt"),
				StructuredIngredient("1", "cup", "butter, softened"),
				StructuredIngredient("¾", "cup", "granulated sugar"),
				StructuredIngredient("¾", "cup", "packed brown sugar"),
				StructuredIngredient("2", "large", "eggs"),
				StructuredIngredient("2", "tsp", "vanilla extract"),
				StructuredIngredient("2", "cups", "chocolate chips"),
			},
			Instructions: []string{
				"Preheat oven to 375°F. Line baking sheets with parchment paper.",
				"In a bowl, whisk together flour, baking soda, and salt.",
				"In a large bowl, cream butter and both sugars until light and fluffy.",
				"Beat in eggs and vanilla extract until well combined.",
				"Gradually mix in flour mixture until just combined. Stir in chocolate chips.",
				"Drop rounded tablespoons of dough onto prepared baking sheets.",
				"Bake for 9-11 minutes until golden brown. Cool on baking sheet for 5 minutes.",
			},
		},
		{
			Title:      "Homemade Pizza",
			Time:       "2 hours",
			Tags:       []string{"Dinner", "Italian", "Comfort Food"},
			Difficulty: DifficultyThreeStars,
			Timeline: []TimelineEntry{
				{Step: "Dough", Time: "1 hr"},
				{Step: "Prep", Time: "30 min"},
				{Step: "Bake", Time: "15 min"},
			},
			Ingredients: []Ingredient{
				StructuredIngredient("3", "cups", "all-purpose flour"),
				StructuredIngredient("1", "tsp", "salt"),
				StructuredIngredient("1", "tbsp", "sugar"),
				StructuredIngredient("1", "packet", "active dry yeast"),
				StructuredIngredient("1", "cup", "warm water"),
				StructuredIngredient("2", "tbsp", "olive oil"),
				StructuredIngredient("1", "cup", "pizza sauce"),
				StructuredIngredient("2", "cups", "mozzarella cheese"),
				StructuredIngredient("", "", "Toppings of choice"),
			},
			Instructions: []string{
				"Dissolve yeast in warm water with sugar. Let stand for 5 minutes until foamy.",
				"In a large bowl, combine flour and salt. Add yeast mixture and olive oil.",
				"Mix until a dough forms, then knead for 8-10 minutes until smooth.",
				"Place in oiled bowl, cover, and let rise for 1 hour until doubled.",
				"Punch down dough and roll out on floured surface to desired thickness.",
				"Transfer to pizza stone or baking sheet. Add sauce and toppings.",
				"Bake at 475°F for 12-15 minutes until crust is golden and cheese is bubbly.",
			},
		},
		{
			Title:      "Beef Stew",
			Time:       "3 hours",
			Tags:       []string{"Dinner", "Comfort Food", "Slow Cook"},
			Difficulty: DifficultyFourStars,
			Timeline: []TimelineEntry{
				{Step: "Prep", Time: "30 min"},
				{Step: "Brown", Time: "15 min"},
				{Step: "Simmer", Time: "2 hrs"},
			},
			Ingredients: []Ingredient{
				StructuredIngredient("2", "lbs", "beef chuck, cubed"),
				StructuredIngredient("3", "tbsp", "flour"),
				StructuredIngredient("2", "tbsp", "oil"),
				StructuredIngredient("1", "", "onion, diced"),
				StructuredIngredient("3", "", "carrots, sliced"),
				StructuredIngredient("3", "", "potatoes, cubed"),
				StructuredIngredient("4", "cups", "beef broth"),
				StructuredIngredient("2", "tsp", "thyme"),
				StructuredIngredient("", "", "Salt and pepper to taste"),
			},
			Instructions: []string{
				"Season beef with salt and pepper, then coat with flour.",
				"Heat oil in a large pot and brown beef on all sides.",
				"Add onion and cook until softened, about 5 minutes.",
				"Add broth, thyme, and bring to a boil.",
				"Reduce heat, cover, and simmer for 1.5 hours.",
				"Add carrots and potatoes, simmer for 30 minutes more.",
				"Season with salt and pepper before serving.",
			},
		},
	}
}
