package recipefile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/larder/internal/models"
)

func TestParse_YAML(t *testing.T) {
	input := []byte(`
title: "  Banana Bread "
description: Moist and sweet
category: Dessert
prepTime: 15
cookTime: 60
servings: 8
ingredients:
  - name: Banana
    amount: 3
  - name: Flour
    amount: "1¾"
    unit: cup
instructions:
  - Mash bananas
  - Mix everything
  - Bake
`)
	in, err := Parse(input)
	require.NoError(t, err)
	assert.Equal(t, "Banana Bread", in.Title, "title is trimmed")
	assert.Equal(t, models.CategoryDessert, in.Category)
	assert.Equal(t, 8, in.Servings)
	assert.Equal(t, 60, in.CookTime)
	require.Len(t, in.Ingredients, 2)
	assert.Equal(t, "3", in.Ingredients[0].Amount)
	assert.Equal(t, "cup", in.Ingredients[1].Unit)
	assert.Equal(t, []string{"Mash bananas", "Mix everything", "Bake"}, in.Instructions)
	assert.NoError(t, in.Validate())
}

func TestParse_JSON(t *testing.T) {
	input := []byte(`{"title":"Lemonade","category":"Beverage","prepTime":5,"cookTime":0,"servings":4,"ingredients":[{"name":"Lemon","amount":"4","unit":""}],"instructions":["Squeeze","Stir"]}`)
	in, err := Parse(input)
	require.NoError(t, err)
	assert.Equal(t, "Lemonade", in.Title)
	assert.Len(t, in.Instructions, 2)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("title: X\ncategroy: Lunch\n"))
	assert.Error(t, err)
}

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   \n\n"} {
		_, err := Parse([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("title: [unclosed\n"))
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	orig := models.RecipeInput{
		Title:        "Omelette",
		Category:     models.CategoryBreakfast,
		PrepTime:     5,
		CookTime:     5,
		Servings:     1,
		Ingredients:  []models.Ingredient{{ID: "dropped", Name: "Egg", Amount: "2"}},
		Instructions: []string{"Beat", "Cook"},
	}
	data, err := Marshal(orig)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped", "ingredient id is not exported")

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, orig.Title, back.Title)
	require.Len(t, back.Ingredients, 1)
	assert.Equal(t, "Egg", back.Ingredients[0].Name)
	assert.Empty(t, back.Ingredients[0].ID)
}

func TestFileName(t *testing.T) {
	r := models.Recipe{ID: "1f2e3d4c-aaaa-bbbb", Title: "Mom's Banana Bread!"}
	assert.Equal(t, "mom-s-banana-bread-1f2e3d4c.yaml", FileName(r))
	assert.Equal(t, "recipe-ab.yaml", FileName(models.Recipe{ID: "ab", Title: "!!!"}))
}
