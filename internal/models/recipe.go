// Package models defines the domain types for Larder.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Recipe categories.
const (
	CategoryBreakfast = "Breakfast"
	CategoryLunch     = "Lunch"
	CategoryDinner    = "Dinner"
	CategoryDessert   = "Dessert"
	CategoryAppetizer = "Appetizer"
	CategorySnack     = "Snack"
	CategoryBeverage  = "Beverage"
	CategoryOther     = "Other"
)

// Categories lists every accepted category in display order.
var Categories = []string{
	CategoryBreakfast,
	CategoryLunch,
	CategoryDinner,
	CategoryDessert,
	CategoryAppetizer,
	CategorySnack,
	CategoryBeverage,
	CategoryOther,
}

// Ingredient is one line of a recipe's ingredient list.
// Amount and Unit are free-form ("¾", "a pinch", "").
type Ingredient struct {
	ID     string `json:"id" yaml:"-"`
	Name   string `json:"name" yaml:"name"`
	Amount string `json:"amount" yaml:"amount"`
	Unit   string `json:"unit" yaml:"unit"`
}

// Validate validates a single ingredient.
func (i Ingredient) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required, validation.By(notBlank)),
	)
}

// RecipeInput is the caller-supplied part of a recipe: everything except
// the id and the timestamps, which the store owns.
type RecipeInput struct {
	Title        string       `json:"title" yaml:"title"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Category     string       `json:"category" yaml:"category"`
	PrepTime     int          `json:"prepTime" yaml:"prepTime"`
	CookTime     int          `json:"cookTime" yaml:"cookTime"`
	Servings     int          `json:"servings" yaml:"servings"`
	Ingredients  []Ingredient `json:"ingredients" yaml:"ingredients"`
	Instructions []string     `json:"instructions" yaml:"instructions"`
}

// Validate checks the required fields. It never touches the database.
func (in RecipeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.By(notBlank)),
		validation.Field(&in.Category, validation.Required, validation.In(categoryValues()...)),
		validation.Field(&in.PrepTime, validation.Min(0)),
		validation.Field(&in.CookTime, validation.Min(0)),
		validation.Field(&in.Servings, validation.Required, validation.Min(1)),
		validation.Field(&in.Ingredients),
		validation.Field(&in.Instructions, validation.Each(validation.Required, validation.By(notBlank))),
	)
}

// Recipe is the aggregate root: a recipe together with its ordered
// ingredients and instructions.
type Recipe struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Category     string       `json:"category"`
	PrepTime     int          `json:"prepTime"`
	CookTime     int          `json:"cookTime"`
	Servings     int          `json:"servings"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Input strips the store-owned fields from r.
func (r Recipe) Input() RecipeInput {
	return RecipeInput{
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		Servings:     r.Servings,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
	}
}

// TotalTime returns prep plus cook time in minutes.
func (r Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// FormatMinutes renders a duration in minutes as "45min", "2h" or "1h 30min".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dmin", minutes)
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dmin", h, m)
}

// FileMetadata describes one recipe file in an import directory.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

func categoryValues() []any {
	out := make([]any, len(Categories))
	for i, c := range Categories {
		out[i] = c
	}
	return out
}

func notBlank(value any) error {
	s, _ := value.(string)
	if s != "" && strings.TrimSpace(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}
