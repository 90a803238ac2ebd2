package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sumitkamra20/insightgen/internal/generator"
)

var generatorsDB string

var generatorsCmd = &cobra.Command{
	Use:   "generators",
	Short: "Manage generator definitions",
}

var generatorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available generators",
	RunE:  runGeneratorsList,
}

var generatorsImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import generator YAML definitions into a SQLite store",
	Args:  cobra.ExactArgs(1),
	RunE:  runGeneratorsImport,
}

var generatorsDeleteCmd = &cobra.Command{
	Use:   "delete <generator-id>",
	Short: "Delete a generator from a SQLite store",
	Args:  cobra.ExactArgs(1),
	RunE:  runGeneratorsDelete,
}

func init() {
	generatorsImportCmd.Flags().StringVar(&generatorsDB, "db", "generators.db", "path to the SQLite generator store")
	generatorsDeleteCmd.Flags().StringVar(&generatorsDB, "db", "generators.db", "path to the SQLite generator store")

	generatorsCmd.AddCommand(generatorsListCmd)
	generatorsCmd.AddCommand(generatorsImportCmd)
	generatorsCmd.AddCommand(generatorsDeleteCmd)
	rootCmd.AddCommand(generatorsCmd)
}

func runGeneratorsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	source, closeSource, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	registry, err := generator.NewRegistry(logger, source, defaultsFrom(cfg))
	if err != nil {
		return err
	}

	summaries := registry.List()
	if len(summaries) == 0 {
		color.Yellow("No generators available")
		return nil
	}

	defaultID, _ := registry.DefaultID()

	header := color.New(color.FgCyan, color.Bold)
	header.Printf("%-20s %-10s %s\n", "ID", "VERSION", "NAME")

	for _, s := range summaries {
		marker := " "
		if s.ID == defaultID {
			marker = "*"
		}
		fmt.Printf("%s %-18s %-10s %s\n", marker, s.ID, s.Version, s.Name)
		if s.Description != "" {
			color.New(color.Faint).Printf("  %s\n", s.Description)
		}
	}

	return nil
}

func runGeneratorsImport(cmd *cobra.Command, args []string) error {
	dir := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := generator.OpenSQLiteStore(generatorsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read generator directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		color.Yellow("No YAML definitions found in %s", dir)
		return nil
	}

	defaults := defaultsFrom(cfg)
	imported := 0

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		id, err := store.Put(data, defaults)
		if err != nil {
			color.Red("Skipped %s: %v", name, err)
			continue
		}

		color.Green("Imported %s (%s)", id, name)
		imported++
	}

	fmt.Printf("\n%d of %d definitions imported into %s\n", imported, len(names), generatorsDB)
	return nil
}

func runGeneratorsDelete(cmd *cobra.Command, args []string) error {
	store, err := generator.OpenSQLiteStore(generatorsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(args[0]); err != nil {
		return err
	}

	color.Green("Deleted generator %s", args[0])
	return nil
}
