package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RowanDark/playfair/internal/cipher"
	"github.com/RowanDark/playfair/internal/config"
	"github.com/RowanDark/playfair/internal/playfair"
)

// readInput joins the positional arguments, or reads stdin when there are
// none or the only argument is "-".
func readInput(args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.Join(args, " "), nil
}

// loadConfig resolves configuration and reports failures on stderr.
func loadConfig() (config.Config, bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return config.Config{}, false
	}
	return cfg, true
}

// useConfiguredCiphers makes pipeline and recipe steps build their key
// squares with the configured filler and parallelism, as encrypt does.
func useConfiguredCiphers(cfg config.Config) {
	cipher.UseCipherCache(playfair.NewCache(0, cfg.CipherOptions()...))
}

// recipesDir falls back to ~/.playfair/recipes when the configuration
// names no directory.
func recipesDir(cfg config.Config) string {
	if dir := strings.TrimSpace(cfg.RecipesDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".playfair", "recipes")
}

// parseStep turns "name:key=value,key=value" into an operation config.
// Values that parse as booleans or integers keep that type.
func parseStep(raw string) (cipher.OperationConfig, error) {
	name, rawParams, hasParams := strings.Cut(strings.TrimSpace(raw), ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return cipher.OperationConfig{}, fmt.Errorf("step %q has no operation name", raw)
	}
	step := cipher.OperationConfig{Name: name}
	if !hasParams || strings.TrimSpace(rawParams) == "" {
		return step, nil
	}
	step.Parameters = make(map[string]any)
	for _, pair := range strings.Split(rawParams, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return cipher.OperationConfig{}, fmt.Errorf("step %s: parameter %q must be key=value", name, pair)
		}
		step.Parameters[key] = parseValue(strings.TrimSpace(value))
	}
	return step, nil
}

func parseValue(v string) any {
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}

func parseSteps(args []string) ([]cipher.OperationConfig, error) {
	steps := make([]cipher.OperationConfig, 0, len(args))
	for _, raw := range args {
		step, err := parseStep(raw)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// letter parses a one-letter flag value.
func letter(s string) (rune, error) {
	runes := []rune(strings.ToUpper(strings.TrimSpace(s)))
	if len(runes) != 1 {
		return 0, fmt.Errorf("expected a single letter, got %q", s)
	}
	return runes[0], nil
}
