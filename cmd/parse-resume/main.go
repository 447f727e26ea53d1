package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-json"

	"internmatch/profile-builder/internal/config"
	"internmatch/profile-builder/internal/logging"
	"internmatch/profile-builder/internal/services"
)

// Parses a local resume PDF and prints the partial profile it would merge
// into a wizard session.
func main() {
	raw := flag.Bool("raw", false, "print the parsed resume instead of the profile patch")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-raw] resume.pdf\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger, closeLog, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("❌ Failed to initialize logger", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	geminiService, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey: cfg.Gemini.APIKey,
		Model:  cfg.Gemini.Model,
		Logger: logger,
	})
	if err != nil {
		logger.Error("❌ Failed to initialize Gemini AI", slog.Any("error", err))
		os.Exit(1)
	}

	parser := services.NewResumeParserService(
		services.NewPDFParserService(cfg.Storage.MaxPDFPages),
		geminiService,
		cfg.Gemini.MaxRetries,
		logger,
	)

	parsed, err := parser.Parse(ctx, flag.Arg(0))
	if err != nil {
		logger.Error("❌ Failed to parse resume", slog.String("file", flag.Arg(0)), slog.Any("error", err))
		os.Exit(1)
	}

	var out any = services.MapParsedResumeToProfile(*parsed)
	if *raw {
		out = parsed
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Error("❌ Failed to encode result", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println(string(encoded))
}
