package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipeservice"
	"github.com/starford/larder/internal/testutil"
)

func testServer(t *testing.T) (*Server, *recipeservice.Service) {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := recipeservice.NewService(testutil.TestStore(t), nil, logger)
	return New(svc, "test"), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_recipes":
		result, err = srv.listRecipes(ctx, req)
	case "get_recipe":
		result, err = srv.getRecipe(ctx, req)
	case "create_recipe":
		result, err = srv.createRecipe(ctx, req)
	case "update_recipe":
		result, err = srv.updateRecipe(ctx, req)
	case "delete_recipe":
		result, err = srv.deleteRecipe(ctx, req)
	case "get_recipe_contract":
		result, err = srv.getRecipeContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	require.NoError(t, err, "tool %s", name)
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

const soupJSON = `{
	"title": "Tomato Soup",
	"category": "Lunch",
	"prepTime": 10,
	"cookTime": 80,
	"servings": 4,
	"ingredients": [
		{"name": "tomatoes", "amount": "1", "unit": "kg"},
		{"name": "salt", "amount": "", "unit": ""}
	],
	"instructions": ["Roast the tomatoes.", "Blend and season."]
}`

func createSoup(t *testing.T, srv *Server) string {
	t.Helper()
	r := callTool(t, srv, "create_recipe", map[string]interface{}{"recipe": soupJSON})
	require.False(t, r.IsError, "create failed: %s", resultText(r))
	id := strings.TrimPrefix(resultText(r), "created: ")
	require.NotEqual(t, resultText(r), id, "unexpected create result")
	require.NotEmpty(t, id)
	return id
}

func TestCreateAndGetRecipe(t *testing.T) {
	srv, _ := testServer(t)
	id := createSoup(t, srv)

	text := resultText(callTool(t, srv, "get_recipe", map[string]interface{}{"id": id}))
	for _, want := range []string{
		"# Tomato Soup",
		"Lunch · Serves 4 · Total 1h 30min (prep 10min, cook 1h 20min)",
		"- 1 kg tomatoes\n- salt\n",
		"1. Roast the tomatoes.\n2. Blend and season.\n",
	} {
		assert.Contains(t, text, want)
	}

	r := callTool(t, srv, "get_recipe", map[string]interface{}{"id": id, "format": "json"})
	var got models.Recipe
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &got))
	assert.Equal(t, id, got.ID)
	require.Len(t, got.Ingredients, 2)
	assert.Equal(t, "salt", got.Ingredients[1].Name)
}

func TestCreateRecipe_Rejected(t *testing.T) {
	srv, svc := testServer(t)

	cases := map[string]string{
		"not json":      "{title",
		"unknown field": `{"title":"x","category":"Other","servings":1,"rating":5}`,
		"bad category":  `{"title":"x","category":"Brunch","servings":1}`,
		"no servings":   `{"title":"x","category":"Other"}`,
	}
	for name, payload := range cases {
		r := callTool(t, srv, "create_recipe", map[string]interface{}{"recipe": payload})
		assert.True(t, r.IsError, "%s: got %q", name, resultText(r))
	}

	all, err := svc.ListRecipes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "rejected payloads are not stored")
}

func TestUpdateRecipe(t *testing.T) {
	srv, svc := testServer(t)
	id := createSoup(t, srv)
	before, err := svc.GetRecipe(context.Background(), id)
	require.NoError(t, err)

	update := `{"title":"Roast Tomato Soup","category":"Dinner","prepTime":5,"cookTime":40,"servings":2,
		"ingredients":[{"name":"plum tomatoes","amount":"800","unit":"g"}],
		"instructions":["Roast.","Blend.","Serve."]}`
	r := callTool(t, srv, "update_recipe", map[string]interface{}{"id": id, "recipe": update})
	require.False(t, r.IsError, "update failed: %s", resultText(r))
	assert.Equal(t, "updated: "+id, resultText(r))

	after, err := svc.GetRecipe(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Roast Tomato Soup", after.Title)
	assert.Equal(t, models.CategoryDinner, after.Category)
	require.Len(t, after.Ingredients, 1)
	assert.Equal(t, "plum tomatoes", after.Ingredients[0].Name)
	assert.Equal(t, []string{"Roast.", "Blend.", "Serve."}, after.Instructions)
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt), "creation time is kept")
}

func TestUpdateRecipe_Rejected(t *testing.T) {
	srv, svc := testServer(t)
	id := createSoup(t, srv)

	r := callTool(t, srv, "update_recipe", map[string]interface{}{"id": "nope", "recipe": soupJSON})
	require.True(t, r.IsError)
	assert.Equal(t, "not found: nope", resultText(r))

	r = callTool(t, srv, "update_recipe", map[string]interface{}{
		"id": id, "recipe": `{"title":"x","category":"Other","servings":1,"rating":5}`,
	})
	assert.True(t, r.IsError, "unknown field rejected")

	r = callTool(t, srv, "update_recipe", map[string]interface{}{
		"id": id, "recipe": `{"title":"","category":"Other","servings":1}`,
	})
	assert.True(t, r.IsError, "invalid recipe rejected")

	got, err := svc.GetRecipe(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", got.Title, "failed updates leave the recipe untouched")
	assert.Len(t, got.Ingredients, 2)
}

func TestListRecipes(t *testing.T) {
	srv, svc := testServer(t)

	r := callTool(t, srv, "list_recipes", map[string]interface{}{})
	assert.Equal(t, "[]", resultText(r))

	_, err := svc.CreateRecipe(context.Background(), models.RecipeInput{
		Title: "Lemonade", Category: models.CategoryBeverage, PrepTime: 5, Servings: 2,
	})
	require.NoError(t, err)

	r = callTool(t, srv, "list_recipes", map[string]interface{}{})
	var got []recipeSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Lemonade", got[0].Title)
	assert.Equal(t, "5min", got[0].TotalTime)
}

func TestGetRecipeMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_recipe", map[string]interface{}{"id": "nope"})
	assert.True(t, r.IsError)
	assert.Equal(t, "not found: nope", resultText(r))
}

func TestDeleteRecipe(t *testing.T) {
	srv, svc := testServer(t)
	rec, err := svc.CreateRecipe(context.Background(), models.RecipeInput{
		Title: "Toast", Category: models.CategoryBreakfast, Servings: 1,
	})
	require.NoError(t, err)

	r := callTool(t, srv, "delete_recipe", map[string]interface{}{"id": rec.ID})
	require.False(t, r.IsError, "delete failed: %s", resultText(r))

	r = callTool(t, srv, "get_recipe", map[string]interface{}{"id": rec.ID})
	assert.True(t, r.IsError, "recipe still readable after delete")
}

func TestRecipeContract(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_recipe_contract", nil))
	assert.Equal(t, RecipeFormatContract, text)
	for _, c := range models.Categories {
		assert.Contains(t, text, c)
	}

	contents, err := srv.readRecipeFormatResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	assert.Len(t, contents, 1)
}
