package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"

	"github.com/mpetrin/tripweave"
	"github.com/mpetrin/tripweave/internal/providers"
	"github.com/mpetrin/tripweave/pkg/api"
)

var (
	cfgFile string

	noPlanner    bool
	noLiveSearch bool
	noCritique   bool
)

var rootCmd = &cobra.Command{
	Use:   "tripweave",
	Short: "Tripweave CLI - conversational trip planning",
	Long: `Tripweave plans trips through a multi-step conversation: it extracts
your plan, searches flights, hotels and activities, tracks the budget
across currencies, and drafts an itinerary reviewed by a critique pass.
Conversations checkpoint after every step, so you can stop, answer a
question, and resume where you left off.`,
}

var planCmd = &cobra.Command{
	Use:   "plan [message]",
	Short: "Send a message to a conversation and run it forward",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := viper.GetString("id")
		if id == "" {
			id = uuid.New().String()
			fmt.Printf("conversation: %s\n", id)
		}
		planner, cleanup, err := buildPlanner()
		if err != nil {
			return err
		}
		defer cleanup()

		flags := flagOverrides(cmd)
		res, err := planner.Advance(context.Background(), id, args[0], flags)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the latest checkpoint of a conversation as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		id := viper.GetString("id")
		if id == "" {
			return fmt.Errorf("--id is required")
		}
		planner, cleanup, err := buildPlanner()
		if err != nil {
			return err
		}
		defer cleanup()

		st, err := planner.GetState(context.Background(), id)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <seq> [message]",
	Short: "Re-run a conversation from an earlier checkpoint",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := viper.GetString("id")
		if id == "" {
			return fmt.Errorf("--id is required")
		}
		var seq int
		if _, err := fmt.Sscanf(args[0], "%d", &seq); err != nil {
			return fmt.Errorf("invalid checkpoint sequence %q", args[0])
		}
		message := ""
		if len(args) == 2 {
			message = args[1]
		}
		planner, cleanup, err := buildPlanner()
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := planner.Replay(context.Background(), id, seq, message)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every checkpoint of a conversation",
	RunE: func(cmd *cobra.Command, args []string) error {
		id := viper.GetString("id")
		if id == "" {
			return fmt.Errorf("--id is required")
		}
		planner, cleanup, err := buildPlanner()
		if err != nil {
			return err
		}
		defer cleanup()
		if err := planner.Clear(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("cleared %s\n", id)
		return nil
	},
}

// buildPlanner assembles a SQLite-backed planner with the fixture
// catalog for search and an Ollama client for language work.
func buildPlanner() (tripweave.Planner, func(), error) {
	catalog, err := providers.NewCatalog()
	if err != nil {
		return nil, nil, err
	}
	llm := providers.NewOllamaClient(
		providers.WithOllamaURL(viper.GetString("ollama-url")),
		providers.WithOllamaModel(viper.GetString("model")),
	)

	db, err := sql.Open("sqlite", viper.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	planner, err := tripweave.NewSQLitePlanner(db, catalog.Collaborators(llm),
		tripweave.WithObserver(tripweave.NewLoggingObserver(logger)),
	)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return planner, func() { db.Close() }, nil
}

func logLevel() slog.Level {
	if viper.GetBool("verbose") {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// flagOverrides turns the disable flags into a FeatureFlags override,
// or nil when none were set so the conversation keeps its stored flags.
func flagOverrides(cmd *cobra.Command) *api.FeatureFlags {
	if !cmd.Flags().Changed("no-planner") &&
		!cmd.Flags().Changed("no-live-search") &&
		!cmd.Flags().Changed("no-critique") {
		return nil
	}
	flags := api.DefaultFlags()
	flags.UsePlanner = !noPlanner
	flags.UseLiveSearch = !noLiveSearch
	flags.UseCritique = !noCritique
	return &flags
}

func printResult(res tripweave.TurnResult) {
	switch res.Status {
	case tripweave.TurnPaused:
		fmt.Printf("[%s] %s\n", res.AwaitingStep, res.Question)
	case tripweave.TurnDone:
		fmt.Println(res.Itinerary)
		if len(res.Costs) > 0 {
			fmt.Println("\nCosts:")
			for _, line := range res.Costs {
				note := ""
				if line.FallbackRate {
					note = " (1:1 fallback rate)"
				}
				fmt.Printf("  %-12s %10.2f %s%s\n", line.Category, line.Converted, line.Currency, note)
			}
		}
	}
}

func main() {
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(clearCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tripweave.yaml)")
	rootCmd.PersistentFlags().String("id", "", "conversation id (plan generates one when omitted)")
	rootCmd.PersistentFlags().String("db", "tripweave.db", "SQLite database path")
	rootCmd.PersistentFlags().String("ollama-url", "http://localhost:11434", "Ollama server URL")
	rootCmd.PersistentFlags().String("model", "llama3.1:8b", "Ollama model")
	rootCmd.PersistentFlags().Bool("verbose", false, "debug logging")

	viper.BindPFlag("id", rootCmd.PersistentFlags().Lookup("id"))
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("ollama-url", rootCmd.PersistentFlags().Lookup("ollama-url"))
	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	planCmd.Flags().BoolVar(&noPlanner, "no-planner", false, "skip plan extraction (reuse the stored plan)")
	planCmd.Flags().BoolVar(&noLiveSearch, "no-live-search", false, "skip location and search steps")
	planCmd.Flags().BoolVar(&noCritique, "no-critique", false, "skip the critique pass")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".tripweave")
		}
	}
	viper.SetEnvPrefix("TRIPWEAVE")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}
