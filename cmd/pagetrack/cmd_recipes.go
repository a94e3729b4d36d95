package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pageanalytics/internal/recipe"
)

var (
	recipesFile  string
	recipesWatch bool
)

// recipesCmd groups recipe table commands
var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Inspect and validate extraction recipes",
}

var recipesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the recipe table in use",
	Args:  cobra.NoArgs,
	RunE:  listRecipes,
}

var recipesCheckCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Validate a recipe file",
	Long: `Validates a YAML recipe file: every recipe needs a label field, field names,
keywords and positional indices must be unique within a recipe, and action
kinds must be known.

With --watch the file is re-validated every time it changes until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: checkRecipes,
}

func init() {
	recipesListCmd.Flags().StringVarP(&recipesFile, "file", "f", "", "Recipe file (default: config recipes_path, then built-in)")
	recipesCheckCmd.Flags().BoolVar(&recipesWatch, "watch", false, "Re-validate whenever the file changes")
}

func listRecipes(cmd *cobra.Command, args []string) error {
	table, err := loadRecipes(recipesFile)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%d recipes", len(table.Recipes))
	if table.HostVersion != "" {
		title += " (host " + table.HostVersion + ")"
	}
	t := newSimpleTable(title, "ELEMENT", "ACTION", "LABEL", "KEY", "CALLBACK")
	for _, name := range table.Names() {
		r, _ := table.Lookup(name)
		t.AddRow(r.Element, r.Action.String(),
			describeField(r, recipe.FieldLabel),
			describeField(r, recipe.FieldKey),
			describeField(r, recipe.FieldAction))
	}
	fmt.Fprint(cmd.OutOrStdout(), t.View(defaultTableStyles()))
	return nil
}

// describeField renders a field as keyword@index, or "-" when undeclared.
func describeField(r recipe.Recipe, name string) string {
	f, ok := r.Field(name)
	if !ok {
		return "-"
	}
	if f.Index == nil {
		return f.Keyword
	}
	return f.Keyword + "@" + strconv.Itoa(*f.Index)
}

func checkRecipes(cmd *cobra.Command, args []string) error {
	path := args[0]
	out := cmd.OutOrStdout()

	table, err := recipe.Load(path)
	reportCheck(out, path, table, err)
	if !recipesWatch {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchRecipes(ctx, out, path)
}

func watchRecipes(ctx context.Context, out io.Writer, path string) error {
	w, err := recipe.NewWatcher(path, func(table *recipe.Table, err error) {
		reportCheck(out, path, table, err)
	})
	if err != nil {
		return err
	}
	logger.Info("Watching recipe file", zap.String("path", path))
	return w.Run(ctx)
}

func reportCheck(out io.Writer, path string, table *recipe.Table, err error) {
	if err != nil {
		fmt.Fprintf(out, "FAIL %s\n%v\n", path, err)
		return
	}
	fmt.Fprintf(out, "ok   %s (%d recipes)\n", path, len(table.Recipes))
}
