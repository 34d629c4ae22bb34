package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/oratio-labs/oratio-core/internal/asr"
	"github.com/oratio-labs/oratio-core/internal/assess"
	"github.com/oratio-labs/oratio-core/internal/config"
	"github.com/oratio-labs/oratio-core/internal/media"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath    string
		filePath      string
		referencePath string
		language      string
		windowSeconds float64
		verbose       bool
	)
	assessCmd := flag.NewFlagSet("assess", flag.ExitOnError)
	assessCmd.StringVar(&configPath, "config", "", "Path to configuration file (optional)")
	assessCmd.StringVar(&filePath, "file", "", "Path to the audio or video submission")
	assessCmd.StringVar(&referencePath, "reference", "", "Path to the expected script (optional)")
	assessCmd.StringVar(&language, "language", "", "Recognition language, e.g. en-US")
	assessCmd.Float64Var(&windowSeconds, "window", 0, "Window length in seconds (0 uses config)")
	assessCmd.BoolVar(&verbose, "verbose", false, "Log pipeline progress to stderr")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "expected 'assess' or 'version'")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "assess":
		assessCmd.Parse(os.Args[2:])
		if filePath == "" {
			fmt.Fprintln(os.Stderr, "assess requires -file")
			os.Exit(2)
		}
		if err := runAssess(configPath, filePath, referencePath, language, windowSeconds, verbose); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

func runAssess(configPath, filePath, referencePath, language string, windowSeconds float64, verbose bool) error {
	var cfg config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	logOut := io.Discard
	if verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelDebug}))

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read submission: %w", err)
	}
	var reference string
	if referencePath != "" {
		data, err := os.ReadFile(referencePath)
		if err != nil {
			return fmt.Errorf("read reference script: %w", err)
		}
		reference = string(data)
	}

	normalizer, err := media.NewNormalizer(cfg.Media, logger)
	if err != nil {
		return err
	}
	recognizer, err := buildRecognizer(cfg)
	if err != nil {
		return err
	}
	service := assess.NewService(cfg, normalizer, recognizer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var progress func(done, total int)
	if verbose {
		progress = func(done, total int) {
			fmt.Fprintf(os.Stderr, "windows %d/%d\n", done, total)
		}
	}

	result := service.Assess(ctx, assess.Request{
		Audio:         raw,
		Filename:      filePath,
		ReferenceText: reference,
		Language:      language,
		WindowSeconds: windowSeconds,
		Progress:      progress,
	})

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !result.Success {
		return fmt.Errorf("assessment failed: %s (%s)", result.Error, result.ErrorCode)
	}
	return nil
}

func buildRecognizer(cfg config.Config) (asr.Recognizer, error) {
	switch cfg.Recognizer.Mode {
	case "http":
		return asr.NewHTTPRecognizer(cfg.Recognizer.Endpoint, cfg.Recognizer.Token), nil
	case "mock":
		return asr.NewMockRecognizer(), nil
	default:
		return nil, fmt.Errorf("unknown recognizer mode %q", cfg.Recognizer.Mode)
	}
}
