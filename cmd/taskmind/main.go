package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskmind/internal/config"
	"taskmind/internal/dialogue"
	"taskmind/internal/llm"
	"taskmind/internal/logging"
	"taskmind/internal/orchestrator"
	"taskmind/internal/perception"
	"taskmind/internal/resolve"
	"taskmind/internal/task"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	debug      bool
	apiKey     string
	spaceName  string

	// Loaded in PersistentPreRunE, shared by all commands.
	userConfig *config.UserConfig
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "taskmind",
	Short: "taskmind - conversational task orchestration",
	Long: `taskmind turns natural-language messages into task operations.

Each message is classified into an intent (create, update, complete,
delete, query, clarify); vague requests earn at most one clarifying
question before the engine acts on what it has.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultUserConfigPath()
		}
		var err error
		userConfig, err = config.LoadUserConfig(path)
		if err != nil {
			return err
		}
		if apiKey != "" {
			userConfig.LLM.APIKey = apiKey
		}
		if debug {
			userConfig.Logging.Debug = true
		}
		return logging.Initialize(logging.Options{
			Debug:      userConfig.Logging.Debug,
			Categories: userConfig.Logging.Categories,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

// classifyCmd classifies a single utterance and prints the raw result.
var classifyCmd = &cobra.Command{
	Use:   "classify [message]",
	Short: "Classify one message and print the result as JSON",
	Long: `Runs a single message through the classification pipeline against an
empty task list and prints the normalized result. Useful for inspecting
intent, vagueness score, and proposed task fields without a chat session.

Example:
  taskmind classify "fix the login bug by friday, it's urgent"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

// versionCmd prints the build version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the taskmind version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("taskmind 0.1.0")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.taskmind.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "completion-service API key (overrides config)")
	rootCmd.PersistentFlags().StringVar(&spaceName, "space", "Personal", "space name for the session")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(versionCmd)
}

// buildSession wires the full pipeline from user configuration.
func buildSession(ctx context.Context) (*dialogue.Machine, *resolve.Resolver, error) {
	client, err := llm.NewClientFromConfig(ctx, userConfig)
	if err != nil {
		return nil, nil, err
	}
	retry := llm.RetryConfigFromUser(userConfig)

	classifier := perception.NewClassifierWithRetry(client, retry)
	engine := orchestrator.NewWithFollowUpCap(classifier, userConfig.Dialogue.MaxFollowUps)
	machine := dialogue.NewMachineWithThreshold(engine, userConfig.Dialogue.VaguenessThreshold)
	resolver := resolve.NewResolverWithRetry(client, retry)
	return machine, resolver, nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := llm.NewClientFromConfig(ctx, userConfig)
	if err != nil {
		return err
	}
	classifier := perception.NewClassifierWithRetry(client, llm.RetryConfigFromUser(userConfig))
	engine := orchestrator.NewWithFollowUpCap(classifier, userConfig.Dialogue.MaxFollowUps)

	utterance := ""
	for i, a := range args {
		if i > 0 {
			utterance += " "
		}
		utterance += a
	}

	result := engine.Orchestrate(ctx, orchestrator.Request{
		Utterance: utterance,
		Tasks:     []task.Task{},
		SpaceName: spaceName,
	})

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
