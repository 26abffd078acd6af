package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting of the assistant.
type Config struct {
	Server ServerConfig
	Chat   ChatConfig
	Log    LogConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Chat: chat, Log: loadLogConfig()}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// loadServerConfig resolves the listen address.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ChatConfig controls the dialogue engine and its console front end.
type ChatConfig struct {
	// KnowledgeFile overrides the embedded content when set.
	KnowledgeFile string
	// RandomSeed pins response selection; nil means a random seed.
	RandomSeed   *uint64
	TypingDelay  time.Duration
	WelcomeAudio string
	ShowMenu     bool
}

func loadChatConfig() (ChatConfig, error) {
	seed, err := parseOptionalUintEnv("SHIELD_RANDOM_SEED")
	if err != nil {
		return ChatConfig{}, err
	}

	delay := time.Duration(0)
	if ms, err := parseOptionalIntEnv("SHIELD_TYPING_DELAY_MS"); err != nil {
		return ChatConfig{}, err
	} else if ms != nil {
		if *ms < 0 {
			return ChatConfig{}, fmt.Errorf("invalid SHIELD_TYPING_DELAY_MS value %d: must not be negative", *ms)
		}
		delay = time.Duration(*ms) * time.Millisecond
	}

	showMenu, err := parseBoolEnv("SHIELD_SHOW_MENU", true)
	if err != nil {
		return ChatConfig{}, err
	}

	return ChatConfig{
		KnowledgeFile: strings.TrimSpace(os.Getenv("SHIELD_KNOWLEDGE_FILE")),
		RandomSeed:    seed,
		TypingDelay:   delay,
		WelcomeAudio:  getEnvOrDefault("SHIELD_WELCOME_AUDIO", "Audio/welcome.wav"),
		ShowMenu:      showMenu,
	}, nil
}

// LogConfig selects log level and destination.
type LogConfig struct {
	Level string
	File  string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level: getEnvOrDefault("SHIELD_LOG_LEVEL", "info"),
		File:  strings.TrimSpace(os.Getenv("SHIELD_LOG_FILE")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalUintEnv(key string) (*uint64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
