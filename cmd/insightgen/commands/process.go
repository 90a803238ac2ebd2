package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sumitkamra20/insightgen/internal/artifact"
	"github.com/sumitkamra20/insightgen/internal/deck"
	"github.com/sumitkamra20/insightgen/internal/domain"
	"github.com/sumitkamra20/insightgen/internal/generator"
	"github.com/sumitkamra20/insightgen/internal/llm"
	"github.com/sumitkamra20/insightgen/internal/pipeline"
	"github.com/sumitkamra20/insightgen/internal/render"
)

var (
	processGenerator     string
	processOutputDir     string
	processUserPrompt    string
	processInstructions  string
	processBatchSize     int
	processParallelism   int
	processContextWindow int
)

var processCmd = &cobra.Command{
	Use:   "process <manifest.json> <deck.pdf>",
	Short: "Analyze a slide deck and write the enriched output document",
	Args:  cobra.ExactArgs(2),
	RunE:  runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processGenerator, "generator", "g", "", "generator id (default generator when empty)")
	processCmd.Flags().StringVarP(&processOutputDir, "output", "o", ".", "output directory")
	processCmd.Flags().StringVarP(&processUserPrompt, "prompt", "p", "", "market/brand context supplied to every observation call")
	processCmd.Flags().StringVar(&processInstructions, "instructions", "", "additional headline instructions for this run")
	processCmd.Flags().IntVar(&processBatchSize, "batch-size", 0, "slides rendered per batch")
	processCmd.Flags().IntVar(&processParallelism, "parallelism", 0, "concurrent observation calls")
	processCmd.Flags().IntVar(&processContextWindow, "context-window", 0, "headlines kept as narrative context")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	manifestPath, pdfPath := args[0], args[1]

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

	completions, err := llm.NewClient(cfg.Completion, logger)
	if err != nil {
		return err
	}

	manifestData, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	src, err := deck.NewManifestSource(manifestData)
	if err != nil {
		return err
	}

	pages, err := render.NewPageSourceFromFile(pdfPath, render.Options{
		DPI:         cfg.Render.DPI,
		JPEGQuality: cfg.Render.JPEGQuality,
	})
	if err != nil {
		return err
	}
	defer pages.Close()

	warnings, err := deck.ValidatePair(src, pages.PageCount(), filepath.Base(manifestPath), filepath.Base(pdfPath))
	if err != nil {
		return err
	}
	for _, warning := range warnings {
		color.Yellow("Warning: %s", warning)
	}

	pipe := pipeline.New(logger, registry, completions, cfg.Pipeline)

	req := pipeline.Request{
		Deck:        src,
		Pages:       pages,
		GeneratorID: processGenerator,
		UserPrompt:  processUserPrompt,
		Overrides: pipeline.Overrides{
			BatchSize:              processBatchSize,
			Parallelism:            processParallelism,
			ContextWindowSize:      processContextWindow,
			AdditionalInstructions: processInstructions,
		},
	}

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	spin.Suffix = " Analyzing deck..."
	spin.Start()

	result, err := pipe.Run(context.Background(), req)
	spin.Stop()
	if err != nil {
		return err
	}

	filename, content, err := artifact.NewJSONWriter().Write(context.Background(), filepath.Base(pdfPath), result.Slides)
	if err != nil {
		return err
	}

	outPath := filepath.Join(processOutputDir, filename)
	if err := os.WriteFile(outPath, content, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	displayMetrics(result.Metrics, outPath)
	return nil
}

// displayMetrics prints the run report to the terminal.
func displayMetrics(m domain.PipelineMetrics, outPath string) {
	header := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgWhite)
	value := color.New(color.FgGreen, color.Bold)

	fmt.Println()
	header.Println("Deck Analysis Complete")
	header.Println("======================")

	label.Printf("Generator:           ")
	value.Printf("%s", m.GeneratorID)
	if m.GeneratorVersion != "" {
		fmt.Printf(" (v%s)", m.GeneratorVersion)
	}
	fmt.Println()

	label.Printf("Total slides:        ")
	value.Println(fmt.Sprint(m.TotalSlides))
	label.Printf("Content slides:      ")
	value.Println(fmt.Sprint(m.ContentSlides))
	label.Printf("Observations:        ")
	value.Println(fmt.Sprint(m.ObservationsGenerated))
	label.Printf("Headlines:           ")
	value.Println(fmt.Sprint(m.HeadlinesGenerated))

	label.Printf("Errors:              ")
	if m.Errors > 0 {
		color.New(color.FgRed, color.Bold).Println(fmt.Sprint(m.Errors))
	} else {
		value.Println("0")
	}

	label.Printf("Total time:          ")
	value.Println(m.TotalDuration.Round(time.Millisecond).String())
	if m.ContentSlides > 0 {
		label.Printf("Avg / content slide: ")
		value.Println(m.AveragePerContentSlide.Round(time.Millisecond).String())
	}

	fmt.Println()
	label.Printf("Output written to:   ")
	color.New(color.FgBlue, color.Bold).Println(outPath)
}
