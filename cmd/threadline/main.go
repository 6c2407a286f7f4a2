package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/threadline/threadline/config"
	"github.com/threadline/threadline/llm"
	"github.com/threadline/threadline/llm/providers"
	tlogger "github.com/threadline/threadline/logger"
	"github.com/threadline/threadline/prompt"
	"github.com/threadline/threadline/store"
)

const usage = `Usage: threadline <command> [flags]

Commands:
  render   Format a template into messages and print them
  send     Format a template and send it to an LLM provider
  save     Save a template file into the store under a name
  list     List stored templates
  delete   Delete a stored template

Run "threadline <command> -h" for command flags.
`

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		return err
	}
	logger := tlogger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "render":
		return runRender(ctx, cfg, logger, os.Args[2:])
	case "send":
		return runSend(ctx, cfg, logger, os.Args[2:])
	case "save":
		return runSave(ctx, cfg, logger, os.Args[2:])
	case "list":
		return runList(ctx, cfg, logger, os.Args[2:])
	case "delete":
		return runDelete(ctx, cfg, logger, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

// varFlags collects repeated -var key=value flags.
type varFlags map[string]any

func (v varFlags) String() string { return fmt.Sprintf("%v", map[string]any(v)) }

func (v varFlags) Set(s string) error {
	key, value, found := strings.Cut(s, "=")
	if !found || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	v[key] = value
	return nil
}

// loadTemplate resolves a template from either a file path or a stored name.
func loadTemplate(ctx context.Context, cfg *config.Config, logger zerolog.Logger, file, name string) (*prompt.ChatTemplate, error) {
	switch {
	case file != "" && name != "":
		return nil, fmt.Errorf("-file and -name are mutually exclusive")
	case file != "":
		return prompt.LoadFile(file)
	case name != "":
		db, err := store.Open(cfg.StorePath(), logger)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return store.NewStore(db).GetTemplate(ctx, name)
	default:
		return nil, fmt.Errorf("either -file or -name is required")
	}
}

func runRender(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	vars := make(varFlags)
	var (
		file   = fs.String("file", "", "Path to template YAML file")
		name   = fs.String("name", "", "Name of a stored template")
		asJSON = fs.Bool("json", false, "Print messages as JSON instead of buffer text")
	)
	fs.Var(vars, "var", "Template variable as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tmpl, err := loadTemplate(ctx, cfg, logger, *file, *name)
	if err != nil {
		return err
	}
	msgs, err := tmpl.FormatMessagesContext(ctx, vars)
	if err != nil {
		return err
	}

	if *asJSON {
		data, err := json.MarshalIndent(msgs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(llm.GetBufferString(msgs))
	return nil
}

func runSend(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	vars := make(varFlags)
	var (
		file      = fs.String("file", "", "Path to template YAML file")
		name      = fs.String("name", "", "Name of a stored template")
		provider  = fs.String("provider", "", "Provider to use (default: first configured)")
		model     = fs.String("model", "", "Model override")
		maxTokens = fs.Int64("max-tokens", 0, "Max tokens override")
	)
	fs.Var(vars, "var", "Template variable as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tmpl, err := loadTemplate(ctx, cfg, logger, *file, *name)
	if err != nil {
		return err
	}
	msgs, err := tmpl.FormatMessagesContext(ctx, vars)
	if err != nil {
		return err
	}

	registry := llm.NewProviderRegistry(cfg.ProviderConfig(), cfg.LLMProviders)
	key, err := registry.Resolve(*provider, *model)
	if err != nil {
		return err
	}
	client, err := providers.NewClient(key, cfg.Retry.MaxAttempts, logger)
	if err != nil {
		return err
	}

	req := &llm.Request{Messages: msgs, MaxTokens: cfg.MaxTokens}
	if *maxTokens > 0 {
		req.MaxTokens = *maxTokens
	}

	logger.Info().Str("provider", key.Provider).Str("model", key.Model).Msg("sending request")
	resp, err := client.Complete(ctx, req)
	if err != nil {
		return err
	}

	reply := llm.Message{Role: llm.RoleAI, Content: resp.Content}
	fmt.Println(reply.TextContent())
	return nil
}

func runSave(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	var (
		file = fs.String("file", "", "Path to template YAML file")
		name = fs.String("name", "", "Name to store the template under")
		desc = fs.String("desc", "", "Template description")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" || *name == "" {
		return fmt.Errorf("-file and -name are required")
	}

	definition, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read template file: %w", err)
	}

	db, err := store.Open(cfg.StorePath(), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.NewStore(db).Save(ctx, *name, *desc, string(definition)); err != nil {
		return err
	}
	fmt.Printf("Saved template %q\n", *name)
	return nil
}

func runList(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := store.Open(cfg.StorePath(), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := store.NewStore(db).List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No stored templates")
		return nil
	}
	for _, rec := range records {
		if rec.Description != "" {
			fmt.Printf("%s\t%s\n", rec.Name, rec.Description)
		} else {
			fmt.Println(rec.Name)
		}
	}
	return nil
}

func runDelete(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	name := fs.String("name", "", "Name of the stored template to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("-name is required")
	}

	db, err := store.Open(cfg.StorePath(), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.NewStore(db).Delete(ctx, *name); err != nil {
		return err
	}
	fmt.Printf("Deleted template %q\n", *name)
	return nil
}
