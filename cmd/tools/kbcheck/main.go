// Command kbcheck validates a knowledge content file and summarizes what it holds.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/cyber-shield/backend/internal/logger"
	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kbcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", os.Getenv("SHIELD_KNOWLEDGE_FILE"), "knowledge YAML file (empty checks the built-in content)")
	verbose := fs.Bool("v", false, "list every key")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	source := *file
	if source == "" {
		source = "built-in"
	}

	store, err := knowledge.Open(*file)
	if err != nil {
		logger.Error("knowledge check failed", "source", source, "err", err)
		fmt.Fprintf(stderr, "FAIL %s: %v\n", source, err)
		return 1
	}

	fmt.Fprintf(stdout, "OK %s\n", source)
	for _, kind := range []knowledge.Kind{knowledge.KindTopic, knowledge.KindKeyword, knowledge.KindPhrase} {
		keys := store.Keys(kind)
		fmt.Fprintf(stdout, "%-8s %d\n", kind, len(keys))
		if *verbose {
			fmt.Fprintf(stdout, "  %s\n", strings.Join(keys, ", "))
		}
	}
	fmt.Fprintf(stdout, "%-8s %d\n", "menu", len(store.Menu()))
	return 0
}
