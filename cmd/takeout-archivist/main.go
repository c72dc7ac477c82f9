package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/EternisAI/takeout-archivist/pkg/chat"
	"github.com/EternisAI/takeout-archivist/pkg/config"
	"github.com/EternisAI/takeout-archivist/pkg/mailbox"
	"github.com/EternisAI/takeout-archivist/pkg/render"
)

func main() {
	mboxPath := flag.String("mbox", "", "Path to the mbox email archive")
	chatRoot := flag.String("chat-root", "", "Path to the chat export root (contains Groups/)")
	ignorePath := flag.String("ignore", "", "Path to an ignore list, one email address per line")
	outputName := flag.String("output", "", "Name of the output PDF document (default "+config.DefaultOutputName+")")
	verbose := flag.Bool("verbose", false, "Enable verbose logging")
	help := flag.Bool("help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Takeout Archive Converter\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Converts exported communication archives into readable documents:\n")
		fmt.Fprintf(os.Stderr, "an mbox email archive becomes a threaded PDF, and a Google Chat\n")
		fmt.Fprintf(os.Stderr, "export becomes one text transcript per conversation.\n\n")
		fmt.Fprintf(os.Stderr, "Options may also be set through the environment (MBOX_PATH,\n")
		fmt.Fprintf(os.Stderr, "CHAT_ROOT, IGNORE_LIST, OUTPUT_PDF); flags take precedence.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s -mbox All.mbox -ignore ignore.txt\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -chat-root 'Takeout/Google Chat'\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		os.Exit(0)
	}

	logger := log.New(os.Stdout)
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	conf, err := config.LoadConfig(*verbose)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Flags override the environment.
	if *mboxPath != "" {
		conf.MboxPath = *mboxPath
	}
	if *chatRoot != "" {
		conf.ChatRoot = *chatRoot
	}
	if *ignorePath != "" {
		conf.IgnoreListPath = *ignorePath
	}
	if *outputName != "" {
		conf.OutputName = *outputName
	}

	if conf.MboxPath == "" && conf.ChatRoot == "" {
		fmt.Fprintf(os.Stderr, "Error: at least one of -mbox and -chat-root is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()

	if conf.ChatRoot != "" {
		proc, err := chat.NewProcessor(logger)
		if err != nil {
			logger.Error("Failed to create chat processor", "error", err)
			os.Exit(1)
		}
		if err := proc.ProcessDirectory(ctx, conf.ChatRoot); err != nil {
			logger.Error("Chat processing failed", "error", err)
			os.Exit(1)
		}
	}

	if conf.MboxPath != "" {
		if err := runMailbox(ctx, logger, conf); err != nil {
			logger.Error("Mailbox processing failed", "error", err)
			os.Exit(1)
		}
	}
}

// runMailbox is the email pipeline: parse, filter, thread, extract
// bodies, render.
func runMailbox(ctx context.Context, logger *log.Logger, conf *config.Config) error {
	proc, err := mailbox.NewProcessor(logger)
	if err != nil {
		return err
	}

	msgs, err := proc.ProcessFile(ctx, conf.MboxPath)
	if err != nil {
		return err
	}

	ignore := mailbox.IgnoreList{}
	if conf.IgnoreListPath != "" {
		ignore, err = mailbox.LoadIgnoreList(conf.IgnoreListPath, logger)
		if err != nil {
			return err
		}
		logger.Info("Loaded ignore list", "addresses", len(ignore))
	}

	kept := mailbox.FilterMessages(msgs, ignore)
	if dropped := len(msgs) - len(kept); dropped > 0 {
		logger.Info("Filtered messages", "dropped", dropped, "kept", len(kept))
	}

	threads := mailbox.BuildThreads(kept)
	logger.Info("Built threads", "threads", len(threads), "messages", len(kept))

	for _, t := range threads {
		for _, m := range t.Messages {
			m.Body = mailbox.ExtractBody(*m)
			m.ContentType = mailbox.ContentTypePlain
		}
	}

	renderer, err := render.NewRenderer(logger)
	if err != nil {
		return err
	}
	outPath := filepath.Join(filepath.Dir(conf.MboxPath), conf.OutputName)
	return renderer.RenderFile(threads, outPath)
}
