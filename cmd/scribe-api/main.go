package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/scribehq/scribe/pkg/cmd"
	"github.com/scribehq/scribe/pkg/llm"
	"github.com/scribehq/scribe/pkg/log"
	"github.com/scribehq/scribe/pkg/otelhelper"
	"github.com/scribehq/scribe/pkg/workflow"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "scribe-api",
		Usage:                 "Run and manage agent executions over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Checkpoint store URL (postgres://... or a file path)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "journal-url",
				Usage:   "Journal storage URL (postgres://... or a file path)",
				Value:   "./data/journal",
				Sources: cli.EnvVars("JOURNAL_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the per-thread lease (empty = in-process)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "llm-api-url",
				Usage:   "Base URL of the OpenAI-compatible chat API",
				Value:   "https://api.openai.com/v1",
				Sources: cli.EnvVars("LLM_API_URL"),
			},
			&cli.StringFlag{
				Name:    "llm-api-key",
				Usage:   "API key for the chat API",
				Sources: cli.EnvVars("LLM_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "llm-model",
				Usage:   "Model name for the chat API",
				Sources: cli.EnvVars("LLM_MODEL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Scribe API")

			store, err := cmd.NewCheckpointStore(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close checkpoint store", "error", err)
				}
			}()

			journalStore, err := cmd.NewJournal(ctx, logger, command.String("journal-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := journalStore.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close journal", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "scribe-api", logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			locker, err := cmd.NewLocker(ctx, logger, command.String("redis-url"))
			if err != nil {
				return err
			}

			llmClient := llm.NewClient(llm.Config{
				BaseURL: command.String("llm-api-url"),
				APIKey:  command.String("llm-api-key"),
				Model:   command.String("llm-model"),
			}, logger)

			registry, err := cmd.NewRegistry(logger, llmClient, journalStore)
			if err != nil {
				return err
			}

			tracer, err := otelhelper.NewTracer(ctx, "scribe-api")
			if err != nil {
				return err
			}

			executor := workflow.NewExecutor(
				store,
				registry,
				locker,
				cmd.NewMetricsRecorder(eventBus, logger),
				logger,
				workflow.WithEventPublisher(eventBus),
				workflow.WithTracer(tracer),
			)

			api := NewAPI(logger, executor, store)

			return api.Start(command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
