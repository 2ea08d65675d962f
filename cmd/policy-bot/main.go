package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/fraud-analyzer/internal/app"
	"github.com/dvloznov/fraud-analyzer/internal/config"
	"github.com/dvloznov/fraud-analyzer/internal/gcsuploader"
	"github.com/dvloznov/fraud-analyzer/internal/knowledge"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
	"github.com/dvloznov/fraud-analyzer/internal/policybot"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "index":
		runIndex()
	case "ask":
		runAsk()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Policy Bot")
	fmt.Println("\nUsage:")
	fmt.Println("  policy-bot <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  index   Split a policy document into chunks and store them")
	fmt.Println("  ask     Answer questions from the indexed policy document")
	fmt.Println("  help    Show this help message")
}

func setup(fs *flag.FlagSet, configPath *string) (context.Context, context.CancelFunc, *config.Config, zerolog.Logger) {
	fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	return logger.WithContext(ctx, log), cancel, cfg, log
}

// readDocument reads a local file or a gs:// object and returns its text
// together with a short name for logging.
func readDocument(ctx context.Context, storage gcsuploader.StorageService, src string) (string, string, error) {
	if gcsuploader.IsGCSURI(src) {
		data, err := storage.FetchFromGCS(ctx, src)
		if err != nil {
			return "", "", err
		}
		return string(data), gcsuploader.ExtractFilenameFromGCSURI(src), nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", "", err
	}
	return string(data), filepath.Base(src), nil
}

func indexDocument(ctx context.Context, a *app.App, src string) error {
	log := logger.FromContext(ctx)
	text, name, err := readDocument(ctx, a.Storage, src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	n, err := policybot.Index(ctx, a.Store, text)
	if err != nil {
		return err
	}
	log.Info().Str("document", name).Int("chunks", n).Msg("Policy document indexed")
	return nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	file := fs.String("file", "", "Policy document, local path or gs:// URI (required)")
	ctx, cancel, cfg, log := setup(fs, configPath)
	defer cancel()

	if *file == "" {
		log.Fatal().Msg("Error: --file is required")
	}
	if cfg.Knowledge.Backend == knowledge.BackendMemory {
		log.Warn().Msg("Memory backend selected: the index lives only for this process, use 'ask -file' instead")
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	if err := indexDocument(ctx, a, *file); err != nil {
		log.Fatal().Err(err).Msg("Failed to index policy document")
	}
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	question := fs.String("q", "", "Question to answer; reads questions from stdin when empty")
	file := fs.String("file", "", "Index this policy document before answering")
	topK := fs.Int("top-k", policybot.DefaultTopK, "Number of chunks handed to the model")
	showContext := fs.Bool("show-context", false, "Print the retrieved chunks")
	ctx, cancel, cfg, log := setup(fs, configPath)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	if *file != "" {
		if err := indexDocument(ctx, a, *file); err != nil {
			log.Fatal().Err(err).Msg("Failed to index policy document")
		}
	} else if cfg.Knowledge.Backend == knowledge.BackendMemory {
		log.Fatal().Msg("Error: the memory backend starts empty, pass --file")
	}
	if a.Narrator == nil {
		log.Warn().Msg("No language model available, every answer will be a refusal")
	}

	bot := policybot.New(a.Store, a.Narrator, policybot.WithTopK(*topK))

	ask := func(q string) {
		answer, err := bot.Ask(ctx, q)
		if errors.Is(err, policybot.ErrEmptyQuestion) {
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to answer question")
			return
		}
		if *showContext {
			for _, m := range answer.Context {
				fmt.Printf("[%s %.3f] %s\n", m.ID, m.Distance, m.Content)
			}
		}
		fmt.Println(answer.Text)
	}

	if *question != "" {
		ask(*question)
		return
	}

	fmt.Println("Ask a question about the policy (Ctrl-D to quit).")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "exit" || q == "quit" {
			break
		}
		ask(q)
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("Failed to read questions")
	}
}
