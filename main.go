package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/modelcost/modelcost/internal/api"
	"github.com/modelcost/modelcost/internal/architect"
	"github.com/modelcost/modelcost/internal/config"
	"github.com/modelcost/modelcost/internal/embedding"
	"github.com/modelcost/modelcost/internal/knowledge"
	"github.com/modelcost/modelcost/internal/llm"
	"github.com/modelcost/modelcost/internal/oracle"
	"github.com/modelcost/modelcost/internal/pricing"
	"github.com/modelcost/modelcost/internal/scraper"
	"github.com/modelcost/modelcost/internal/users"
	"github.com/modelcost/modelcost/internal/worker"
)

// Version information (set during build)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "modelcost",
		Usage:   "AI model pricing intelligence and cost optimisation",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			scrapeCommand(),
			askCommand(),
			queryCommand(),
			optimizeCommand(),
			addCommand(),
			providersCommand(),
			modelsCommand(),
			statsCommand(),
			clearCommand(),
			userCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// appContext bundles everything a CLI command needs.
type appContext struct {
	cfg    *config.Config
	logger *logrus.Logger
	store  *knowledge.Store
	llm    llm.Capability
}

func (a *appContext) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).Warn("Failed to close knowledge store")
	}
}

// setup loads config, configures logging and opens the knowledge store.
func setup(c *cli.Context) (*appContext, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg, c.String("log-level"))

	embed := embedding.NewLocal()
	if cfg.OpenAIAPIKey != "" {
		embed = embedding.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel)
		logger.WithField("model", cfg.EmbeddingModel).Debug("Using OpenAI embeddings")
	} else {
		logger.Debug("No API key configured, using local embeddings")
	}

	store, err := knowledge.Open(cfg.KnowledgeDir(), knowledge.DefaultCollection, embed, logger)
	if err != nil {
		return nil, err
	}

	capability := llm.Unavailable()
	if cfg.OpenAIAPIKey != "" {
		capability = llm.Available(llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.LLMModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}))
	}

	return &appContext{cfg: cfg, logger: logger, store: store, llm: capability}, nil
}

func newLogger(cfg *config.Config, override string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	level := cfg.LogLevel
	if override != "" {
		level = override
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the REST API server",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "listen port (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET_KEY must be set to run the API server")
			}

			userStore, err := users.Open(app.cfg.UserDBPath())
			if err != nil {
				return err
			}
			defer func() { _ = userStore.Close() }()

			port := app.cfg.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}

			extractor := architect.NewExtractor(app.llm, app.logger)
			server := api.NewServer(api.Config{
				Addr:          fmt.Sprintf(":%d", port),
				Version:       Version,
				JWTSecret:     app.cfg.JWTSecret,
				TokenTTL:      app.cfg.TokenTTL(),
				RatePerMinute: app.cfg.RatePerMinute,
			},
				app.store,
				oracle.New(app.store, app.llm, app.cfg.LLMModel, app.logger),
				architect.New(app.store, extractor, app.logger),
				scraper.New(app.store, nil, app.logger),
				userStore,
				worker.NewPool(app.cfg.Workers),
				app.logger,
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.Start(ctx)
		},
	}
}

func scrapeCommand() *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "scrape pricing data into the knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "save", Usage: "also save scraped data to a JSON file"},
		},
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.Close()

			sc := scraper.New(app.store, nil, app.logger)

			if path := c.String("save"); path != "" {
				data := sc.Scrape(c.Context)
				if err := sc.SaveToFile(data, path); err != nil {
					return err
				}
				count := app.store.Add(c.Context, data)
				color.Green("Scraping complete! %d entries added to knowledge base.", count)
				return nil
			}

			count := sc.Run(c.Context)
			color.Green("Scraping complete! %d entries added to knowledge base.", count)
			return nil
		},
	}
}

func askCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "ask a pricing question (RAG + LLM)",
		ArgsUsage: "\"question\"",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "results", Value: oracle.DefaultResults, Usage: "number of context entries to retrieve"},
		},
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.Close()

			question := strings.Join(c.Args().Slice(), " ")
			o := oracle.New(app.store, app.llm, app.cfg.LLMModel, app.logger)

			answer, err := o.Ask(c.Context, question, c.Int("results"))
			if err != nil {
				return err
			}

			fmt.Println(answer)
			return nil
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "semantic search over pricing data",
		ArgsUsage: "\"search text\"",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "results", Value: 5, Usage: "number of results"},
			&cli.StringFlag{Name: "provider", Usage: "restrict results to one provider"},
		},
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.Close()

			text := strings.Join(c.Args().Slice(), " ")
			results, err := app.store.Query(c.Context, text, c.Int("results"), c.String("provider"))
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("No results found. Try adding more data first.")
				return nil
			}

			fmt.Printf("Found %d relevant result(s):\n\n", len(results))
			for i, res := range results {
				color.Cyan("%d. %s - %s", i+1, res.Metadata.Provider, res.Metadata.ModelName)
				fmt.Printf("   Input:  $%g/1M tokens\n", res.Metadata.InputCost)
				fmt.Printf("   Output: $%g/1M tokens\n", res.Metadata.OutputCost)
				if len(res.Metadata.LastUpdated) >= 10 {
					fmt.Printf("   Updated: %s\n", res.Metadata.LastUpdated[:10])
				}
				fmt.Println()
			}
			return nil
		},
	}
}

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "optimize",
		Usage:     "recommend the most cost-effective model for a use case",
		ArgsUsage: "\"use case description\"",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "input-tokens", Required: true, Usage: "estimated monthly input tokens"},
			&cli.Int64Flag{Name: "output-tokens", Usage: "estimated monthly output tokens (default: 20% of input)"},
			&cli.StringFlag{Name: "current-model", Usage: "model currently in use, for savings comparison"},
		},
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.Close()

			description := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(description) == "" {
				return fmt.Errorf("a use case description is required")
			}

			var outputTokens *int64
			if c.IsSet("output-tokens") {
				v := c.Int64("output-tokens")
				outputTokens = &v
			}

			extractor := architect.NewExtractor(app.llm, app.logger)
			arch := architect.New(app.store, extractor, app.logger)

			report, err := arch.Optimize(c.Context, description, c.Int64("input-tokens"), outputTokens, c.String("current-model"))
			if err != nil {
				return err
			}

			fmt.Println(report.Text())
			return nil
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "add pricing entries from a JSON file (single object or array)",
		ArgsUsage: "file.json",
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.Close()

			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one JSON file argument")
			}

			data, err := os.ReadFile(c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}

			var raws []pricing.Raw
			if err := json.Unmarshal(data, &raws); err != nil {
				var single pricing.Raw
				if err := json.Unmarshal(data, &single); err != nil {
					return fmt.Errorf("invalid JSON: expected a pricing object or array")
				}
				raws = []pricing.Raw{single}
			}

			count := app.store.Add(c.Context, raws)
			color.Green("Successfully added %d pricing entry(ies).", count)
			return nil
		},
	}
}

func providersCommand() *cli.Command {
	return &cli.Command{
		Name:  "providers",
		Usage: "list all providers in the knowledge base",
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.Close()

			providers := app.store.Providers()
			if len(providers) == 0 {
				fmt.Println("Knowledge base is empty. Run 'modelcost scrape' first.")
				return nil
			}
			for _, p := range providers {
				fmt.Println(p)
			}
			return nil
		},
	}
}

func modelsCommand() *cli.Command {
	return &cli.Command{
		Name:      "models",
		Usage:     "list models, optionally filtered by provider",
		ArgsUsage: "[provider]",
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.Close()

			provider := c.Args().First()
			models := app.store.Models(provider)
			if len(models) == 0 {
				if provider != "" {
					if suggestion, ok := app.store.ClosestProvider(provider); ok {
						return fmt.Errorf("no models for provider %q, did you mean %q?", provider, suggestion)
					}
				}
				fmt.Println("No models found.")
				return nil
			}

			for _, m := range models {
				fmt.Printf("%s/%s  in $%g  out $%g\n", m.Provider, m.ModelName, m.InputCost, m.OutputCost)
			}
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "show knowledge base statistics",
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.Close()

			stats := app.store.Stats()
			fmt.Printf("Total models: %d\n", stats.TotalModels)
			fmt.Printf("Providers:    %s\n", strings.Join(stats.Providers, ", "))
			fmt.Printf("Collection:   %s\n", stats.CollectionName)
			fmt.Printf("Directory:    %s\n", stats.PersistDirectory)
			return nil
		},
	}
}

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "remove all data from the knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "provider", Usage: "only remove entries for this provider"},
			&cli.BoolFlag{Name: "yes", Usage: "skip confirmation"},
		},
		Action: func(c *cli.Context) error {
			app, err := setup(c)
			if err != nil {
				return err
			}
			defer app.Close()

			if !c.Bool("yes") {
				fmt.Print("This permanently deletes pricing data. Continue? [y/N] ")
				var answer string
				_, _ = fmt.Scanln(&answer)
				if !strings.EqualFold(answer, "y") {
					fmt.Println("Cancelled.")
					return nil
				}
			}

			if provider := c.String("provider"); provider != "" {
				if !app.store.DeleteByProvider(c.Context, provider) {
					return fmt.Errorf("no entries found for provider %q", provider)
				}
				color.Green("Removed all entries for %s.", provider)
				return nil
			}

			app.store.Clear(c.Context)
			color.Green("Knowledge base cleared.")
			return nil
		},
	}
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "manage API user accounts",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "create a user account",
				ArgsUsage: "username password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "email address"},
					&cli.BoolFlag{Name: "admin", Usage: "grant admin rights"},
				},
				Action: func(c *cli.Context) error {
					app, err := setup(c)
					if err != nil {
						return err
					}
					defer app.Close()

					if c.NArg() != 2 {
						return fmt.Errorf("expected: user add <username> <password>")
					}

					store, err := users.Open(app.cfg.UserDBPath())
					if err != nil {
						return err
					}
					defer func() { _ = store.Close() }()

					var email *string
					if v := c.String("email"); v != "" {
						email = &v
					}

					user, err := store.Create(c.Context, c.Args().Get(0), c.Args().Get(1), email, c.Bool("admin"))
					if err != nil {
						return err
					}
					color.Green("Created user %s (id %d).", user.Username, user.ID)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list user accounts",
				Action: func(c *cli.Context) error {
					app, err := setup(c)
					if err != nil {
						return err
					}
					defer app.Close()

					store, err := users.Open(app.cfg.UserDBPath())
					if err != nil {
						return err
					}
					defer func() { _ = store.Close() }()

					list, err := store.List(c.Context, 0, 100)
					if err != nil {
						return err
					}
					for _, u := range list {
						status := "active"
						if !u.IsActive {
							status = "inactive"
						}
						role := "user"
						if u.IsAdmin {
							role = "admin"
						}
						fmt.Printf("%d\t%s\t%s\t%s\n", u.ID, u.Username, role, status)
					}
					return nil
				},
			},
		},
	}
}
