// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/history"
	"github.com/pdiddy/evidence-engine/internal/httputil"
	"github.com/pdiddy/evidence-engine/internal/research"
	"github.com/pdiddy/evidence-engine/internal/secrets"
	"github.com/pdiddy/evidence-engine/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Submit a research question and print the synthesized answer",
	Long: `Ask submits a natural-language research question to the configured
completion endpoint and prints a narrative explanation, supporting
citations, and follow-up questions. Successful queries are recorded in
the history store.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("model", "", "AI model identifier (default gpt-4o)")
	askCmd.Flags().Duration("timeout", 0, "upstream request timeout (default 60s)")
	askCmd.Flags().Bool("json", false, "output the result as JSON")
	askCmd.Flags().Bool("no-history", false, "do not record this query in history")

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg := researchConfig(cmd)
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	var store *history.Store
	if !noHistory {
		var err error
		store, err = history.NewStore(historyConfig())
		if err != nil {
			logger.Warn("history persistence unavailable", zap.Error(err))
		}
		defer store.Close()
	}

	backend := research.NewOpenAIBackend(cfg, httputil.NewClient(cfg.HTTPConfig))
	orch := research.NewOrchestrator(backend, store, logger)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = httputil.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result, err := orch.Submit(ctx, query)
	if err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		return err
	}

	if jsonOutput {
		return research.FormatJSON(result, os.Stdout)
	}
	research.FormatText(result, os.Stdout)
	return nil
}

// researchConfig assembles the orchestrator configuration from flags, the
// config file, environment, and secret files, in that precedence.
func researchConfig(cmd *cobra.Command) types.ResearchConfig {
	cfg := types.ResearchConfig{
		AIConfig: types.AIConfig{
			Model:       viper.GetString("research.model"),
			Temperature: float32(viper.GetFloat64("research.temperature")),
			MaxTokens:   viper.GetInt("research.max_tokens"),
		},
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("research.timeout"),
			UserAgent: fmt.Sprintf("evidence-engine/%s", version),
		},
	}

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Model = model
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}

	cfg.APIKey = secrets.ResolveAPIKey(viper.GetString("research.api_key"), loadedSecrets)
	return cfg
}

// historyConfig assembles the history store configuration.
func historyConfig() types.HistoryConfig {
	cfg := types.HistoryConfig{
		DataDir:  viper.GetString("history.data_dir"),
		Capacity: viper.GetInt("history.capacity"),
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	return cfg
}

// userMessage maps each error kind to a distinct, actionable message.
func userMessage(err error) string {
	var upstream *research.UpstreamError
	switch {
	case errors.Is(err, research.ErrEmptyQuery):
		return "Please enter a research question."
	case errors.Is(err, research.ErrMissingCredential):
		return fmt.Sprintf("No API key configured. Set %s, add .secrets/%s, or set research.api_key in the config file.",
			secrets.OpenAIKeyEnv, secrets.OpenAIKeyFile)
	case errors.Is(err, research.ErrAuth):
		return "The API rejected your key. Check your OpenAI API key."
	case errors.Is(err, research.ErrMalformedResponse):
		return "The model returned an unusable answer. Try again or rephrase the query."
	case errors.As(err, &upstream) && upstream.Timeout:
		return "The request timed out. Try again or raise --timeout."
	default:
		return "The API request failed. Try again shortly."
	}
}
