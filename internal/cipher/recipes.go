package cipher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// RecipeManager handles storage and retrieval of recipes. With a store path
// every recipe is mirrored to <store>/<name>.json.
type RecipeManager struct {
	recipes   map[string]*Recipe
	storePath string
	mu        sync.RWMutex
}

// NewRecipeManager creates a new recipe manager
func NewRecipeManager(storePath string) *RecipeManager {
	return &RecipeManager{
		recipes:   make(map[string]*Recipe),
		storePath: storePath,
	}
}

// BuiltinRecipes returns the recipes every manager can fall back to. None of
// them stores a keyword; callers pass one as an override when running.
func BuiltinRecipes() []*Recipe {
	return []*Recipe{
		{
			Name:        "playfair-classic",
			Description: "Normalize free text, encrypt, and group the ciphertext in fives",
			Tags:        []string{"playfair", "encrypt", "builtin"},
			Pipeline: Pipeline{
				Operations: []OperationConfig{
					{Name: "playfair_normalize"},
					{Name: "playfair_encrypt"},
					{Name: "group_five"},
				},
			},
		},
		{
			Name:        "playfair-read",
			Description: "Join grouped ciphertext and decrypt it",
			Tags:        []string{"playfair", "decrypt", "builtin"},
			Pipeline: Pipeline{
				Operations: []OperationConfig{
					{Name: "ungroup"},
					{Name: "playfair_decrypt"},
				},
				Reversible: true,
			},
		},
	}
}

// SaveRecipe stores a recipe after checking that every step names a known
// operation.
func (rm *RecipeManager) SaveRecipe(recipe *Recipe) error {
	if recipe == nil || strings.TrimSpace(recipe.Name) == "" {
		return fmt.Errorf("recipe name cannot be empty")
	}
	reg := recipe.Pipeline.registry()
	for i, step := range recipe.Pipeline.Operations {
		if _, ok := reg.Get(step.Name); !ok {
			return fmt.Errorf("recipe %s step %d: %w: %s", recipe.Name, i, ErrUnknownOperation, step.Name)
		}
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	file := sanitizeFilename(recipe.Name)
	for name := range rm.recipes {
		if name != recipe.Name && sanitizeFilename(name) == file {
			return fmt.Errorf("%w: %q and %q share the file %s.json", ErrRecipeConflict, recipe.Name, name, file)
		}
	}

	saved := *recipe
	now := time.Now().UTC().Format(time.RFC3339)
	if saved.CreatedAt == "" {
		saved.CreatedAt = now
		if prev, ok := rm.recipes[saved.Name]; ok {
			saved.CreatedAt = prev.CreatedAt
		}
	}
	saved.UpdatedAt = now

	if rm.storePath != "" {
		if err := rm.persistRecipe(&saved, file); err != nil {
			return err
		}
	}
	rm.recipes[saved.Name] = &saved
	recipe.CreatedAt, recipe.UpdatedAt = saved.CreatedAt, saved.UpdatedAt
	return nil
}

// GetRecipe retrieves a recipe by name, falling back to the built-ins
func (rm *RecipeManager) GetRecipe(name string) (*Recipe, bool) {
	rm.mu.RLock()
	recipe, exists := rm.recipes[name]
	rm.mu.RUnlock()
	if exists {
		return recipe, true
	}
	for _, builtin := range BuiltinRecipes() {
		if builtin.Name == name {
			return builtin, true
		}
	}
	return nil, false
}

// ListRecipes returns all stored recipes sorted by name
func (rm *RecipeManager) ListRecipes() []*Recipe {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	recipes := make([]*Recipe, 0, len(rm.recipes))
	for _, recipe := range rm.recipes {
		recipes = append(recipes, recipe)
	}
	sort.Slice(recipes, func(i, j int) bool {
		return recipes[i].Name < recipes[j].Name
	})
	return recipes
}

// DeleteRecipe removes a saved recipe. Built-in recipes cannot be deleted.
func (rm *RecipeManager) DeleteRecipe(name string) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, ok := rm.recipes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrRecipeNotFound, name)
	}
	delete(rm.recipes, name)

	if rm.storePath != "" {
		recipePath := filepath.Join(rm.storePath, sanitizeFilename(name)+".json")
		if err := os.Remove(recipePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete recipe file: %w", err)
		}
	}
	return nil
}

// RunRecipe executes a recipe's pipeline. overrides are merged into every
// step, typically {"keyword": ...}.
func (rm *RecipeManager) RunRecipe(ctx context.Context, name string, input []byte, overrides map[string]any) ([]byte, error) {
	recipe, ok := rm.GetRecipe(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, name)
	}
	out, err := recipe.Pipeline.ExecuteWith(ctx, input, overrides)
	if err != nil {
		return nil, fmt.Errorf("recipe %s: %w", name, err)
	}
	return out, nil
}

// LoadRecipes loads all recipes from the store path
func (rm *RecipeManager) LoadRecipes() error {
	if rm.storePath == "" {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}

	entries, err := os.ReadDir(rm.storePath)
	if err != nil {
		return fmt.Errorf("failed to read recipes directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		recipePath := filepath.Join(rm.storePath, entry.Name())
		data, err := os.ReadFile(recipePath)
		if err != nil {
			return fmt.Errorf("failed to read recipe %s: %w", entry.Name(), err)
		}

		var recipe Recipe
		if err := json.Unmarshal(data, &recipe); err != nil {
			return fmt.Errorf("failed to parse recipe %s: %w", entry.Name(), err)
		}
		rm.recipes[recipe.Name] = &recipe
	}

	return nil
}

func (rm *RecipeManager) persistRecipe(recipe *Recipe, file string) error {
	if err := os.MkdirAll(rm.storePath, 0o755); err != nil {
		return fmt.Errorf("failed to create recipes directory: %w", err)
	}

	recipePath := filepath.Join(rm.storePath, file+".json")
	if existing, err := os.ReadFile(recipePath); err == nil {
		var onDisk Recipe
		if json.Unmarshal(existing, &onDisk) == nil && onDisk.Name != "" && onDisk.Name != recipe.Name {
			return fmt.Errorf("%w: %q and %q share the file %s.json", ErrRecipeConflict, recipe.Name, onDisk.Name, file)
		}
	}

	data, err := json.MarshalIndent(recipe, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize recipe: %w", err)
	}

	if err := os.WriteFile(recipePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write recipe file: %w", err)
	}
	return nil
}

// sanitizeFilename converts a recipe name to a safe filename
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "recipe"
	}
	return b.String()
}

// SearchRecipes finds stored recipes whose name, description or tags contain
// query, ignoring case
func (rm *RecipeManager) SearchRecipes(query string) []*Recipe {
	q := strings.ToLower(query)
	matches := func(s string) bool {
		return strings.Contains(strings.ToLower(s), q)
	}

	results := make([]*Recipe, 0)
	for _, recipe := range rm.ListRecipes() {
		if matches(recipe.Name) || matches(recipe.Description) {
			results = append(results, recipe)
			continue
		}
		for _, tag := range recipe.Tags {
			if matches(tag) {
				results = append(results, recipe)
				break
			}
		}
	}
	return results
}
