// Package recipefile reads and writes recipe documents in YAML (or JSON,
// which YAML accepts as-is).
package recipefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/larder/internal/models"
)

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Parse decodes a single recipe document. Unknown keys are rejected so a
// misspelt field does not silently drop data.
func Parse(data []byte) (models.RecipeInput, error) {
	var in models.RecipeInput
	if len(bytes.TrimSpace(data)) == 0 {
		return in, errors.New("recipefile: empty document")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return in, errors.New("recipefile: empty document")
		}
		return in, fmt.Errorf("recipefile: decode: %w", err)
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	return in, nil
}

// Marshal encodes a recipe as a YAML document that Parse accepts.
func Marshal(in models.RecipeInput) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(in); err != nil {
		return nil, fmt.Errorf("recipefile: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("recipefile: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName returns a stable file name for an exported recipe, e.g.
// "banana-bread-1f2e3d4c.yaml".
func FileName(r models.Recipe) string {
	slug := strings.Trim(nonSlugRe.ReplaceAllString(strings.ToLower(r.Title), "-"), "-")
	if slug == "" {
		slug = "recipe"
	}
	short := r.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return slug + "-" + short + ".yaml"
}
