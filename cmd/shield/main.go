// Package main is the terminal entry point of the Cyber Shield assistant.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zhouzirui/cyber-shield/backend/internal/config"
	"github.com/zhouzirui/cyber-shield/backend/internal/handler/console"
	"github.com/zhouzirui/cyber-shield/backend/internal/logger"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
	"github.com/zhouzirui/cyber-shield/backend/internal/service/dialogue"
)

var (
	version = "0.1.0"

	cfg       *config.Config
	logCloser io.Closer = io.NopCloser(nil)
)

var rootCmd = &cobra.Command{
	Use:   "shield",
	Short: "South African Cybersecurity Shield - awareness assistant",
	Long: `Shield answers questions about phishing, malware, Wi-Fi safety and social engineering
from a curated knowledge base, adapting its follow-ups to the tone of each message.`,
	RunE:         runChat,
	SilenceUsage: true,
}

var chatCmd = &cobra.Command{
	Use:          "chat",
	Short:        "Start an interactive session",
	RunE:         runChat,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Cyber Shield v%s\n", version)
	},
}

func main() {
	err := rootCmd.Execute()
	_ = logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.String("knowledge", "", "Load knowledge content from a YAML file instead of the built-in set")
	flags.Uint64("seed", 0, "Seed response selection for reproducible sessions")
	flags.Duration("typing-delay", 0, "Delay between printed characters, e.g. 15ms")
	flags.Bool("menu", true, "Show the menu before every prompt")

	for _, name := range []string{"log-level", "log-file", "knowledge", "seed", "typing-delay", "menu"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", name, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initConfig)
}

// initConfig layers flags over environment over defaults.
func initConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	viper.SetDefault("log-level", cfg.Log.Level)
	viper.SetDefault("log-file", cfg.Log.File)
	viper.SetDefault("knowledge", cfg.Chat.KnowledgeFile)
	viper.SetDefault("typing-delay", cfg.Chat.TypingDelay)
	viper.SetDefault("menu", cfg.Chat.ShowMenu)
	if cfg.Chat.RandomSeed != nil {
		viper.SetDefault("seed", *cfg.Chat.RandomSeed)
	}

	closer, err := logger.Configure(viper.GetString("log-level"), viper.GetString("log-file"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
	logCloser = closer
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := buildEngine(ctx)
	if err != nil {
		logger.Error("failed to start", "err", err)
		return err
	}

	logger.Debug("starting console", "version", version)
	c := console.New(engine, cmd.InOrStdin(), cmd.OutOrStdout(), console.Options{
		TypingDelay:  viper.GetDuration("typing-delay"),
		WelcomeAudio: cfg.Chat.WelcomeAudio,
		ShowMenu:     viper.GetBool("menu"),
	})
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func buildEngine(ctx context.Context) (*dialogue.Engine, error) {
	store, err := knowledge.Open(viper.GetString("knowledge"))
	if err != nil {
		return nil, fmt.Errorf("load knowledge: %w", err)
	}

	var seed *uint64
	if viper.IsSet("seed") {
		s := viper.GetUint64("seed")
		seed = &s
	}
	return dialogue.NewEngine(ctx, store, dialogue.WithRandom(dialogue.NewRandom(seed)))
}
