// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/evidence-engine/internal/history"
	"github.com/pdiddy/evidence-engine/internal/research"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse, delete, or export past queries",
	Long: `History manages the bounded record of past queries and their results.
The store keeps the 50 most recent queries, newest first; older entries
are evicted as new ones arrive.`,
}

// openHistory opens the store, downgrading persistence problems to a
// warning so history browsing never fails on a corrupt database.
func openHistory() *history.Store {
	store, err := history.NewStore(historyConfig())
	if err != nil {
		logger.Warn("history persistence unavailable", zap.Error(err))
	}
	return store
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past queries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openHistory()
		defer store.Close()

		entries := store.List()
		if len(entries) == 0 {
			fmt.Println("No search history.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-20s  %-19s  %-50s  %s\n", "ID", "Created", "Query", "Citations")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
		for _, e := range entries {
			query := e.Query
			if len(query) > 50 {
				query = query[:47] + "..."
			}
			fmt.Fprintf(os.Stdout, "%-20s  %-19s  %-50s  %d\n",
				e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), query, len(e.Result.Citations))
		}
		fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
		return nil
	},
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print the stored result of one past query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openHistory()
		defer store.Close()

		entry, ok := store.Get(args[0])
		if !ok {
			return fmt.Errorf("no history entry with id %s", args[0])
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			return research.FormatJSON(entry.Result, os.Stdout)
		}

		fmt.Fprintf(os.Stdout, "Query: %s\nAsked: %s\n\n",
			entry.Query, entry.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		research.FormatText(entry.Result, os.Stdout)
		return nil
	},
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete one history entry by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openHistory()
		defer store.Close()

		removed, err := store.DeleteByID(args[0])
		if err != nil {
			logger.Warn("history persistence failed", zap.Error(err))
		}
		if !removed {
			fmt.Printf("No history entry with id %s.\n", args[0])
			return nil
		}
		fmt.Printf("Deleted %s.\n", args[0])
		return nil
	},
}

// --- clear subcommand ---

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openHistory()
		defer store.Close()

		if err := store.Clear(); err != nil {
			logger.Warn("history persistence failed", zap.Error(err))
		}
		fmt.Println("History cleared.")
		return nil
	},
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history as YAML or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openHistory()
		defer store.Close()

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "yaml", "":
			return store.ExportYAML(os.Stdout)
		case "json":
			return store.ExportJSON(os.Stdout)
		default:
			return fmt.Errorf("unknown format %q: use yaml or json", format)
		}
	},
}

func init() {
	historyShowCmd.Flags().Bool("json", false, "output the result as JSON")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
