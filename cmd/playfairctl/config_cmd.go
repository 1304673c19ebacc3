package main

import (
	"fmt"
	"io"

	"github.com/RowanDark/playfair/internal/config"
	"github.com/RowanDark/playfair/internal/redact"
)

func runConfig(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "config subcommand required")
		return 2
	}

	switch args[0] {
	case "print":
		cfg, ok := loadConfig()
		if !ok {
			return 1
		}
		printResolvedConfig(stdout, cfg)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown config subcommand: %s\n", args[0])
		return 2
	}
}

// printResolvedConfig writes cfg as YAML. The JWT secret is shown only as a
// fingerprint.
func printResolvedConfig(out io.Writer, cfg config.Config) {
	fmt.Fprintf(out, "filler: %s\n", cfg.Filler)
	fmt.Fprintf(out, "fold_j: %t\n", cfg.FoldJ)
	fmt.Fprintf(out, "parallel_threshold: %d\n", cfg.ParallelThreshold)
	fmt.Fprintf(out, "workers: %d\n", cfg.Workers)
	fmt.Fprintf(out, "recipes_dir: %s\n", recipesDir(cfg))
	fmt.Fprintf(out, "audit_log: %s\n", cfg.AuditLogPath)
	fmt.Fprintln(out, "server:")
	fmt.Fprintf(out, "  http_addr: %s\n", cfg.Server.HTTPAddr)
	fmt.Fprintf(out, "  grpc_addr: %s\n", cfg.Server.GRPCAddr)
	fmt.Fprintf(out, "  jwt_secret: %s\n", redact.Fingerprint(cfg.Server.JWTSecret))
	fmt.Fprintf(out, "  jwt_issuer: %s\n", cfg.Server.JWTIssuer)
}
