// Package cmd wires the CLI: serve the API, ask a one-shot question, or
// validate configuration.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ovitag/porterbot/internal/chat"
	"github.com/ovitag/porterbot/internal/config"
	"github.com/ovitag/porterbot/internal/executor"
	"github.com/ovitag/porterbot/internal/format"
	"github.com/ovitag/porterbot/internal/logger"
	"github.com/ovitag/porterbot/internal/rewrite"
	"github.com/ovitag/porterbot/internal/schema"
	"github.com/ovitag/porterbot/internal/synth"
)

var rootCmd = &cobra.Command{
	Use:   "porterbot",
	Short: "Natural-language analytics over the porter request warehouse",
	Long: `porterbot translates plain-English questions into ClickHouse SQL,
runs them against the porter request warehouse, and renders results
through a web UI and a REST API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig loads .env (if present) and the validated configuration.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

// buildBot assembles the full pipeline: provider, correction passes,
// executor, and formatter.
func buildBot(cfg *config.Config, log zerolog.Logger) (*chat.Bot, *executor.Executor, *schema.Cache, string, error) {
	provider, err := synth.NewProvider(cfg)
	if err != nil {
		return nil, nil, nil, "", err
	}

	db, err := executor.Open(cfg)
	if err != nil {
		return nil, nil, nil, "", err
	}

	exec := executor.New(db, cfg)

	cache := schema.NewCache()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := cache.Load(ctx, db); err != nil {
		// The static schema context still grounds the prompt; introspection
		// only enriches /schema.
		log.Warn().Err(err).Msg("schema introspection failed")
	} else {
		log.Info().Int("tables", cache.TableCount()).Msg("schema loaded")
	}

	formatter, err := format.New(cfg.DisplayTimezone)
	if err != nil {
		return nil, nil, nil, "", err
	}

	systemPrompt := synth.BuildSystemPrompt(schema.Context(cfg.DisplayTimezone), cfg.DisplayTimezone)
	pipeline := rewrite.NewPipeline(cfg.DisplayTimezone)

	bot := chat.New(provider, pipeline, exec, formatter, systemPrompt, cfg.LLMTimeout, log)
	return bot, exec, cache, provider.Name(), nil
}
