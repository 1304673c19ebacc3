package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

const productName = "playfair"
const cliBanner = productName + " CLI (playfairctl)"

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var showVersion = flag.Bool("version", false, "print the version and exit")

func init() {
	defaultUsage := flag.Usage
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintln(out, cliBanner)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  encrypt, decrypt, grid, segment, normalize, detect")
		fmt.Fprintln(out, "  ops, pipeline, recipe {save|list|show|run|delete}")
		fmt.Fprintln(out, "  config print, serve, version")
		fmt.Fprintln(out)
		if defaultUsage != nil {
			defaultUsage()
		}
	}
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Fprintln(stdout, versionString())
		return
	}
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(args))
}

// run dispatches a subcommand and returns its exit code.
func run(args []string) int {
	switch args[0] {
	case "encrypt":
		return runEncrypt(args[1:])
	case "decrypt":
		return runDecrypt(args[1:])
	case "grid":
		return runGrid(args[1:])
	case "segment":
		return runSegment(args[1:])
	case "normalize":
		return runNormalize(args[1:])
	case "detect":
		return runDetect(args[1:])
	case "ops":
		return runOps(args[1:])
	case "pipeline":
		return runPipeline(args[1:])
	case "recipe":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "recipe subcommand required")
			return 2
		}
		switch args[1] {
		case "save":
			return runRecipeSave(args[2:])
		case "list":
			return runRecipeList(args[2:])
		case "show":
			return runRecipeShow(args[2:])
		case "run":
			return runRecipeRun(args[2:])
		case "delete":
			return runRecipeDelete(args[2:])
		default:
			fmt.Fprintf(stderr, "unknown recipe subcommand: %s\n", args[1])
			return 2
		}
	case "config":
		return runConfig(args[1:])
	case "serve":
		return runServe(args[1:])
	case "version":
		return runVersion(args[1:])
	default:
		fmt.Fprintf(stderr, "unknown subcommand: %s\n", args[0])
		return 2
	}
}
