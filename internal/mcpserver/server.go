// Package mcpserver exposes the recipe catalog as MCP (Model Context
// Protocol) tools over stdio.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/models"
	"github.com/starford/larder/internal/recipeservice"
)

const formatURI = "larder://recipe-format"

// Server wraps the MCP server with the recipe tools.
type Server struct {
	mcp *server.MCPServer
	svc *recipeservice.Service
}

// New creates an MCP server with every recipe tool registered.
func New(svc *recipeservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Larder",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_recipes",
		mcp.WithDescription("List every recipe, newest first, with id, title, category and total time."),
	), s.listRecipes)

	s.mcp.AddTool(mcp.NewTool("get_recipe",
		mcp.WithDescription("Read one recipe. The default \"steps\" format renders it for cooking: "+
			"times, servings, the ingredient list and numbered steps. \"json\" returns the stored record."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recipe id")),
		mcp.WithString("format", mcp.Enum("steps", "json"), mcp.Description("Output format (default steps)")),
	), s.getRecipe)

	s.mcp.AddTool(mcp.NewTool("create_recipe",
		mcp.WithDescription("Create a recipe from a JSON document. "+
			"The document MUST follow the recipe format contract; read it first via "+
			"the get_recipe_contract tool or the "+formatURI+" resource."),
		mcp.WithString("recipe", mcp.Required(), mcp.Description("Recipe as a JSON object")),
	), s.createRecipe)

	s.mcp.AddTool(mcp.NewTool("update_recipe",
		mcp.WithDescription("Replace a recipe with a full JSON document in the contract format. "+
			"Ingredients and instructions are replaced as a whole; the id and creation time are kept."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recipe id")),
		mcp.WithString("recipe", mcp.Required(), mcp.Description("Recipe as a JSON object")),
	), s.updateRecipe)

	s.mcp.AddTool(mcp.NewTool("delete_recipe",
		mcp.WithDescription("Delete a recipe with its ingredients and instructions."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recipe id")),
	), s.deleteRecipe)

	s.mcp.AddTool(mcp.NewTool("get_recipe_contract",
		mcp.WithDescription("Returns the recipe format contract. "+
			"Call this before creating recipes to get fields and rules right."),
	), s.getRecipeContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Recipe Format Contract",
			mcp.WithResourceDescription("Fields and rules every recipe document must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecipeFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type recipeSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	TotalTime string `json:"totalTime"`
}

func (s *Server) listRecipes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recipes, err := s.svc.ListRecipes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out := make([]recipeSummary, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, recipeSummary{
			ID:        r.ID,
			Title:     r.Title,
			Category:  r.Category,
			TotalTime: models.FormatMinutes(r.TotalTime()),
		})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, err := s.svc.GetRecipe(ctx, id)
	if err != nil {
		return toolError(id, err), nil
	}

	if req.GetString("format", "steps") == "json" {
		data, _ := json.MarshalIndent(r, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
	return mcp.NewToolResultText(RenderSteps(r)), nil
}

func (s *Server) createRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, errResult := recipeArg(req)
	if errResult != nil {
		return errResult, nil
	}

	r, err := s.svc.CreateRecipe(ctx, in)
	if err != nil {
		return toolError("", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", r.ID)), nil
}

func (s *Server) updateRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in, errResult := recipeArg(req)
	if errResult != nil {
		return errResult, nil
	}

	if _, err := s.svc.UpdateRecipe(ctx, id, in); err != nil {
		return toolError(id, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", id)), nil
}

// recipeArg strictly decodes the "recipe" argument; unknown fields are rejected.
func recipeArg(req mcp.CallToolRequest) (models.RecipeInput, *mcp.CallToolResult) {
	var in models.RecipeInput
	raw, err := req.RequireString("recipe")
	if err != nil {
		return in, mcp.NewToolResultError(err.Error())
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, mcp.NewToolResultError(fmt.Sprintf("invalid recipe JSON: %v", err))
	}
	return in, nil
}

func (s *Server) deleteRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteRecipe(ctx, id); err != nil {
		return toolError(id, err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) getRecipeContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecipeFormatContract), nil
}

func (s *Server) readRecipeFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     RecipeFormatContract,
		},
	}, nil
}

func toolError(id string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id))
	case errors.Is(err, apperr.ErrValidation):
		return mcp.NewToolResultError(err.Error())
	default:
		return mcp.NewToolResultError("internal error: " + err.Error())
	}
}

// RenderSteps formats a recipe the way a cook reads it at the stove.
func RenderSteps(r *models.Recipe) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Description)
	}
	fmt.Fprintf(&b, "%s · Serves %d · Total %s (prep %s, cook %s)\n",
		r.Category, r.Servings,
		models.FormatMinutes(r.TotalTime()),
		models.FormatMinutes(r.PrepTime),
		models.FormatMinutes(r.CookTime))

	if len(r.Ingredients) > 0 {
		b.WriteString("\n## Ingredients\n\n")
		for _, ing := range r.Ingredients {
			qty := strings.TrimSpace(ing.Amount + " " + ing.Unit)
			if qty == "" {
				fmt.Fprintf(&b, "- %s\n", ing.Name)
			} else {
				fmt.Fprintf(&b, "- %s %s\n", qty, ing.Name)
			}
		}
	}

	if len(r.Instructions) > 0 {
		b.WriteString("\n## Steps\n\n")
		for i, step := range r.Instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}
	return b.String()
}
