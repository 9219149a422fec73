package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stemforge/stemforge/internal/audio"
	"github.com/stemforge/stemforge/internal/catalog"
	"github.com/stemforge/stemforge/internal/config"
	"github.com/stemforge/stemforge/internal/models"
	"github.com/stemforge/stemforge/internal/separation"
	"github.com/stemforge/stemforge/pkg/logger"
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log := logger.GetLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Infof("Executing command: %s", command)

	switch command {
	case "separate":
		handleSeparate()
	case "remix":
		handleRemix()
	case "list":
		handleList()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleSeparate() {
	log := logger.GetLogger()

	cmd := flag.NewFlagSet("separate", flag.ExitOnError)
	configPath := cmd.String("config", "", "Path to the model YAML config (required)")
	modelType := cmd.String("model-type", "passthrough", "Model type identifier")
	outputDir := cmd.String("output", "separated", "Directory for separated stems")
	tempDir := cmd.String("temp", getEnvOrDefault("STEMFORGE_TEMP_DIR", os.TempDir()), "Directory for temporary conversion files")
	dbPath := cmd.String("catalog", getEnvOrDefault("STEMFORGE_DB_PATH", ""), "Record runs in this SQLite catalog (optional)")
	useTTA := cmd.Bool("tta", false, "Average over test-time augmentations (slower, cleaner)")
	skipErrors := cmd.Bool("skip-errors", false, "Skip unreadable inputs instead of aborting")
	showProgress := cmd.Bool("progress", false, "Print chunk progress")
	cmd.Parse(os.Args[2:])

	inputs := cmd.Args()
	if *configPath == "" || len(inputs) == 0 {
		fmt.Println("Usage: stemforge separate --config <model.yaml> [options] <audio files...>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Resolve the model before touching any audio: an unknown model type is
	// a configuration error, not a per-file one.
	model, err := models.New(*modelType, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	backend := &separation.Native{Model: model}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	var cat *catalog.Client
	if *dbPath != "" {
		cat, err = catalog.Open(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open catalog: %v", err)
		}
		defer cat.Close()
	}

	failed := 0
	for _, input := range inputs {
		if err := separateOne(cfg, backend, *modelType, input, *outputDir, *tempDir, cat, *useTTA, *showProgress); err != nil {
			if *skipErrors {
				log.Warnf("Skipping %s: %v", input, err)
				failed++
				continue
			}
			log.Fatalf("Failed on %s: %v", input, err)
		}
	}
	if failed > 0 {
		log.Warnf("%d/%d inputs skipped", failed, len(inputs))
	}
}

func separateOne(cfg *config.Config, backend separation.Backend, modelType, input, outputDir, tempDir string, cat *catalog.Client, useTTA, showProgress bool) error {
	log := logger.GetLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	wavPath := input
	if !strings.EqualFold(filepath.Ext(input), ".wav") {
		converted, err := audio.ConvertToWAV(ctx, input, tempDir, audio.ConvertConfig{
			SampleRate: cfg.Audio.SampleRate,
			Channels:   cfg.Audio.NumChannels,
		})
		if err != nil {
			return fmt.Errorf("conversion failed: %w", err)
		}
		wavPath = converted
	}

	mix, sampleRate, err := audio.Read(wavPath)
	if err != nil {
		return fmt.Errorf("reading mixture: %w", err)
	}
	log.Infof("Separating %s (%d ch, %d samples @ %d Hz)", input, mix.Dim(0), mix.Dim(1), sampleRate)

	opts := separation.Options{Mode: separation.ModeGeneric, Log: log}
	if showProgress {
		opts.Progress = func(done, total int) {
			fmt.Printf("\r  %3d%%", done*100/total)
			if done >= total {
				fmt.Println()
			}
		}
	}

	start := time.Now()
	sep, err := separation.Demix(ctx, cfg, backend, mix, opts)
	if err != nil {
		return err
	}
	if useTTA {
		log.Infof("Applying test-time augmentation")
		if _, err := separation.ApplyTTA(ctx, cfg, backend, mix, sep.Stems, opts); err != nil {
			return fmt.Errorf("tta failed: %w", err)
		}
	}
	elapsed := time.Since(start)

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	written := make([]string, 0, len(sep.Instruments))
	for _, name := range sep.Instruments {
		stemPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s.wav", base, name))
		if err := audio.Write(stemPath, sep.Stems[name], sampleRate); err != nil {
			return fmt.Errorf("writing stem %s: %w", name, err)
		}
		written = append(written, name)
		log.Infof("Wrote %s", stemPath)
	}

	if cat != nil {
		id, err := cat.Record(catalog.Run{
			Track:      input,
			ModelType:  modelType,
			Backend:    "native",
			SampleRate: sampleRate,
			Stems:      strings.Join(written, ","),
			DurationMs: mix.Dim(1) * 1000 / sampleRate,
			ElapsedMs:  elapsed.Milliseconds(),
		})
		if err != nil {
			log.Warnf("Failed to record run: %v", err)
		} else {
			log.Infof("Recorded run %s", id)
		}
	}
	return nil
}

func handleRemix() {
	log := logger.GetLogger()

	cmd := flag.NewFlagSet("remix", flag.ExitOnError)
	configPath := cmd.String("config", "", "Path to the model YAML config (required)")
	stemsDir := cmd.String("stems", "separated", "Directory holding the separated stem WAV files")
	outputDir := cmd.String("output", "separated", "Directory for the remixed file")
	cmd.Parse(os.Args[2:])

	bases := cmd.Args()
	if *configPath == "" || len(bases) == 0 {
		fmt.Println("Usage: stemforge remix --config <model.yaml> [--stems <dir>] <track base names...>")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	for _, base := range bases {
		mix, sampleRate, used, err := audio.RemixStems(*stemsDir, base, cfg.TargetInstruments(), log)
		if err != nil {
			log.Fatalf("Failed on %s: %v", base, err)
		}
		outPath := filepath.Join(*outputDir, base+"_remix.wav")
		if err := audio.Write(outPath, mix, sampleRate); err != nil {
			log.Fatalf("Failed to write %s: %v", outPath, err)
		}
		log.Infof("Wrote %s from %d stems (%s)", outPath, len(used), strings.Join(used, ","))
	}
}

func handleList() {
	log := logger.GetLogger()

	cmd := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath := cmd.String("catalog", getEnvOrDefault("STEMFORGE_DB_PATH", catalog.DefaultDBFile), "Path to the run catalog")
	cmd.Parse(os.Args[2:])

	cat, err := catalog.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer cat.Close()

	runs, err := cat.List()
	if err != nil {
		log.Fatalf("Failed to list runs: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return
	}
	for i, run := range runs {
		fmt.Printf("%d. %s (%s, %s)\n", i+1, run.Track, run.ModelType, run.Backend)
		fmt.Printf("   Stems: %s | %d ms audio in %d ms | %s\n",
			run.Stems, run.DurationMs, run.ElapsedMs, run.CreatedAt.Format(time.RFC3339))
	}
}

func printUsage() {
	fmt.Println("StemForge - Audio Source Separation CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  stemforge separate --config <model.yaml> [--model-type <type>] [--tta] [--catalog <db>] <audio files...>")
	fmt.Println("  stemforge remix --config <model.yaml> [--stems <dir>] <track base names...>")
	fmt.Println("  stemforge list [--catalog <db>]")
	fmt.Println("\nEnvironment:")
	fmt.Println("  STEMFORGE_DB_PATH   Default run catalog path")
	fmt.Println("  STEMFORGE_TEMP_DIR  Directory for temporary conversion files")
}
