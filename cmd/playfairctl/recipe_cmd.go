package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/RowanDark/playfair/internal/cipher"
)

func recipeManager() (*cipher.RecipeManager, bool) {
	cfg, ok := loadConfig()
	if !ok {
		return nil, false
	}
	useConfiguredCiphers(cfg)
	rm := cipher.NewRecipeManager(recipesDir(cfg))
	if err := rm.LoadRecipes(); err != nil {
		fmt.Fprintf(stderr, "load recipes: %v\n", err)
		return nil, false
	}
	return rm, true
}

func runRecipeSave(args []string) int {
	fs := flag.NewFlagSet("recipe save", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "recipe name")
	desc := fs.String("desc", "", "description")
	tags := fs.String("tags", "", "comma separated tags")
	reversible := fs.Bool("reversible", false, "mark the recipe as reversible")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*name) == "" || fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: recipe save --name NAME step [step...]")
		return 2
	}
	steps, err := parseSteps(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	rm, ok := recipeManager()
	if !ok {
		return 1
	}
	recipe := &cipher.Recipe{
		Name:        *name,
		Description: *desc,
		Tags:        splitTags(*tags),
		Pipeline:    cipher.Pipeline{Operations: steps, Reversible: *reversible},
	}
	if err := rm.SaveRecipe(recipe); err != nil {
		fmt.Fprintf(stderr, "recipe save: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "saved recipe %s\n", recipe.Name)
	return 0
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func runRecipeList(args []string) int {
	fs := flag.NewFlagSet("recipe list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	query := fs.String("q", "", "only list recipes matching this text")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rm, ok := recipeManager()
	if !ok {
		return 1
	}

	var recipes []*cipher.Recipe
	if *query != "" {
		recipes = rm.SearchRecipes(*query)
	} else {
		recipes = rm.ListRecipes()
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTEPS\tDESCRIPTION")
	for _, r := range recipes {
		names := make([]string, len(r.Pipeline.Operations))
		for i, op := range r.Pipeline.Operations {
			names[i] = op.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, strings.Join(names, " > "), r.Description)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "write: %v\n", err)
		return 1
	}
	return 0
}

func runRecipeShow(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: recipe show NAME")
		return 2
	}
	rm, ok := recipeManager()
	if !ok {
		return 1
	}
	recipe, found := rm.GetRecipe(args[0])
	if !found {
		fmt.Fprintf(stderr, "recipe %s not found\n", args[0])
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recipe); err != nil {
		fmt.Fprintf(stderr, "write: %v\n", err)
		return 1
	}
	return 0
}

func runRecipeRun(args []string) int {
	fs := flag.NewFlagSet("recipe run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	keyword := fs.String("k", "", "keyword passed to every step")
	grid := fs.String("grid", "", "key square rows passed to every step instead of a keyword")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: recipe run [-k KEYWORD | -grid ROWS] NAME [text...]")
		return 2
	}
	overrides, err := stepOverrides(*keyword, *grid)
	if err != nil {
		fmt.Fprintf(stderr, "recipe run: %v\n", err)
		return 2
	}
	text, err := readInput(fs.Args()[1:])
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	rm, ok := recipeManager()
	if !ok {
		return 1
	}
	out, err := rm.RunRecipe(context.Background(), fs.Arg(0), []byte(text), overrides)
	if err != nil {
		fmt.Fprintf(stderr, "recipe run: %v\n", err)
		return exitCode(err)
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}

func runRecipeDelete(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: recipe delete NAME")
		return 2
	}
	rm, ok := recipeManager()
	if !ok {
		return 1
	}
	if err := rm.DeleteRecipe(args[0]); err != nil {
		fmt.Fprintf(stderr, "recipe delete: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "deleted recipe %s\n", args[0])
	return 0
}
