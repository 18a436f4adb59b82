package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/raine/copywriter-bot/config"
	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/generator"
	"github.com/raine/copywriter-bot/internal/llm"
)

func main() {
	language := flag.String("language", "English", "Output language (name or code, e.g. fi)")
	tone := flag.String("tone", "", "Tone of voice")
	platforms := flag.String("platforms", "instagram,facebook,twitter", "Social platforms, comma separated")
	marketplace := flag.String("marketplace", "", "Marketplace platform (amazon, etsy, ebay, shopify)")
	category := flag.String("category", "", "Product category for marketplace mode")
	info := flag.String("info", "", "Additional product details")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall timeout")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <image-path> [social|marketplace]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nWithout a mode only the image analysis is printed.\n")
		fmt.Fprintf(os.Stderr, "Provider settings are read from the same environment as the bot.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	mode, ok := content.ParseMode(flag.Arg(1))
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown mode: %s (use social or marketplace)\n", flag.Arg(1))
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}
	img, err := content.NewUploadedImage(data, flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := content.GenerationOptions{
		Language:              *language,
		Tone:                  content.Tone(*tone),
		Mode:                  mode,
		Category:              *category,
		Platform:              content.Marketplace(*marketplace),
		AdditionalDescription: *info,
	}
	if mode == content.ModeSocial {
		opts.Platforms, err = content.ParsePlatforms(*platforms)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	providerOpts := llm.ProviderOptions{Provider: cfg.Provider, Timeout: cfg.CallTimeout}
	if cfg.Provider == config.ProviderGemini {
		providerOpts.APIKey, providerOpts.Model = cfg.GeminiKey, cfg.GeminiModel
	} else {
		providerOpts.APIKey, providerOpts.BaseURL, providerOpts.Model = cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel
	}
	client, err := llm.NewClient(ctx, providerOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s client: %v\n", cfg.Provider, err)
		os.Exit(1)
	}

	retrier := llm.NewRetrier(cfg.RetryAttempts, cfg.RetryBaseDelay).WithAttemptTimeout(cfg.CallTimeout)
	settings := generator.Settings{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens}
	pipeline := generator.New(client, retrier, settings)

	result, err := pipeline.GenerateWithProgress(ctx, img, opts, func(state generator.State) {
		fmt.Fprintf(os.Stderr, "-> %s\n", state)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding result: %v\n", err)
		os.Exit(1)
	}
}
