package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/RowanDark/playfair/internal/env"
	"github.com/RowanDark/playfair/internal/playfair"
)

// Config captures the playfair configuration resolved from defaults, optional
// files, and environment overrides.
type Config struct {
	Filler            string       `yaml:"filler" toml:"filler"`
	FoldJ             bool         `yaml:"fold_j" toml:"fold_j"`
	ParallelThreshold int          `yaml:"parallel_threshold" toml:"parallel_threshold"`
	Workers           int          `yaml:"workers" toml:"workers"`
	RecipesDir        string       `yaml:"recipes_dir" toml:"recipes_dir"`
	AuditLogPath      string       `yaml:"audit_log" toml:"audit_log"`
	Server            ServerConfig `yaml:"server" toml:"server"`
}

// ServerConfig controls the HTTP and gRPC listeners started by `playfairctl serve`.
type ServerConfig struct {
	HTTPAddr  string `yaml:"http_addr" toml:"http_addr"`
	GRPCAddr  string `yaml:"grpc_addr" toml:"grpc_addr"`
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer" toml:"jwt_issuer"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Filler:            string(playfair.DefaultFiller),
		FoldJ:             true,
		ParallelThreshold: playfair.DefaultParallelThreshold,
		Workers:           0,
		RecipesDir:        "",
		AuditLogPath:      "",
		Server: ServerConfig{
			HTTPAddr:  "127.0.0.1:8713",
			GRPCAddr:  "127.0.0.1:8714",
			JWTSecret: "",
			JWTIssuer: "playfair",
		},
	}
}

// Load resolves the configuration using defaults, configuration files, and
// environment overrides. Files are applied in order:
//  1. ~/.playfair/config.toml (TOML)
//  2. ./playfair.yml (YAML)
//
// Environment variables prefixed with PLAYFAIR_ have the highest precedence.
// The legacy PF_ prefix is still honoured with a deprecation warning.
func Load() (Config, error) {
	cfg := Default()

	if err := loadHomeConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadLocalConfig(&cfg); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the cipher cannot honour.
func (c Config) Validate() error {
	if utf8.RuneCountInString(c.Filler) != 1 {
		return fmt.Errorf("filler must be a single letter, got %q", c.Filler)
	}
	r, _ := utf8.DecodeRuneInString(c.Filler)
	if r < 'A' || r > 'Z' {
		return fmt.Errorf("filler must be an uppercase letter A-Z, got %q", c.Filler)
	}
	if !c.FoldJ {
		return fmt.Errorf("fold_j=false: %w", playfair.ErrInvalidAlphabetSize)
	}
	if c.ParallelThreshold < 0 {
		return fmt.Errorf("parallel_threshold must not be negative, got %d", c.ParallelThreshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// CipherOptions converts the cipher settings to playfair options.
func (c Config) CipherOptions() []playfair.Option {
	var filler rune = playfair.DefaultFiller
	if r, size := utf8.DecodeRuneInString(c.Filler); size > 0 {
		filler = r
	}
	return []playfair.Option{
		playfair.WithFoldJ(c.FoldJ),
		playfair.WithFiller(filler),
		playfair.WithParallelism(c.ParallelThreshold, c.Workers),
	}
}

func loadHomeConfig(cfg *Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("determine home directory: %w", err)
	}

	path := filepath.Join(home, ".playfair", "config.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(cfg, data, "toml"); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func loadLocalConfig(cfg *Config) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}
	path := filepath.Join(wd, "playfair.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(cfg, data, "yaml"); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// fileConfig mirrors Config with pointer fields so absent keys leave the
// lower-precedence value in place.
type fileConfig struct {
	Filler            *string           `yaml:"filler" toml:"filler"`
	FoldJ             *bool             `yaml:"fold_j" toml:"fold_j"`
	ParallelThreshold *int              `yaml:"parallel_threshold" toml:"parallel_threshold"`
	Workers           *int              `yaml:"workers" toml:"workers"`
	RecipesDir        *string           `yaml:"recipes_dir" toml:"recipes_dir"`
	AuditLogPath      *string           `yaml:"audit_log" toml:"audit_log"`
	Server            *fileServerConfig `yaml:"server" toml:"server"`
}

type fileServerConfig struct {
	HTTPAddr  *string `yaml:"http_addr" toml:"http_addr"`
	GRPCAddr  *string `yaml:"grpc_addr" toml:"grpc_addr"`
	JWTSecret *string `yaml:"jwt_secret" toml:"jwt_secret"`
	JWTIssuer *string `yaml:"jwt_issuer" toml:"jwt_issuer"`
}

func applyFileConfig(cfg *Config, data []byte, format string) error {
	var fc fileConfig
	switch format {
	case "yaml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return err
		}
	case "toml":
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	setString(&cfg.Filler, fc.Filler)
	if fc.Filler != nil {
		cfg.Filler = strings.ToUpper(cfg.Filler)
	}
	if fc.FoldJ != nil {
		cfg.FoldJ = *fc.FoldJ
	}
	if fc.ParallelThreshold != nil {
		cfg.ParallelThreshold = *fc.ParallelThreshold
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	setString(&cfg.RecipesDir, fc.RecipesDir)
	setString(&cfg.AuditLogPath, fc.AuditLogPath)
	if fc.Server != nil {
		setString(&cfg.Server.HTTPAddr, fc.Server.HTTPAddr)
		setString(&cfg.Server.GRPCAddr, fc.Server.GRPCAddr)
		setString(&cfg.Server.JWTSecret, fc.Server.JWTSecret)
		setString(&cfg.Server.JWTIssuer, fc.Server.JWTIssuer)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func applyEnvOverrides(cfg *Config) {
	if val, ok := lookup("FILLER"); ok {
		cfg.Filler = strings.ToUpper(val)
	}
	if val, ok := env.Bool("PLAYFAIR_FOLD_J", "PF_FOLD_J"); ok {
		cfg.FoldJ = val
	}
	if val, ok := env.Int("PLAYFAIR_PARALLEL_THRESHOLD", "PF_PARALLEL_THRESHOLD"); ok {
		cfg.ParallelThreshold = val
	}
	if val, ok := env.Int("PLAYFAIR_WORKERS", "PF_WORKERS"); ok {
		cfg.Workers = val
	}
	if val, ok := lookup("RECIPES_DIR"); ok {
		cfg.RecipesDir = val
	}
	if val, ok := lookup("AUDIT_LOG"); ok {
		cfg.AuditLogPath = val
	}
	if val, ok := lookup("HTTP_ADDR"); ok {
		cfg.Server.HTTPAddr = val
	}
	if val, ok := lookup("GRPC_ADDR"); ok {
		cfg.Server.GRPCAddr = val
	}
	if val, ok := lookup("JWT_SECRET"); ok {
		cfg.Server.JWTSecret = val
	}
	if val, ok := lookup("JWT_ISSUER"); ok {
		cfg.Server.JWTIssuer = val
	}
}

// lookup reads PLAYFAIR_<suffix>, falling back to PF_<suffix>. Blank values
// are ignored.
func lookup(suffix string) (string, bool) {
	val, ok := env.Lookup("PLAYFAIR_"+suffix, "PF_"+suffix)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}
