package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rag"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/watcher"
	"github.com/hyperjump/kotae/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

// setup loads config and builds a logger. --debug overrides the config file.
func (o *rootOptions) setup() (*config.Config, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.debug {
		cfg.Debug = true
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, err
	}
	if resolved == "" {
		logger.Debug("no config file found, using defaults")
	} else {
		logger.Debug("config loaded", zap.String("path", resolved))
	}
	return cfg, logger, nil
}

func newServerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API and the inbox watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			components, err := initializeComponents(cfg, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			watchCtx, watchCancel := context.WithCancel(context.Background())
			defer watchCancel()
			var watchSvc *watcher.Watcher
			if cfg.Watch.Enabled() {
				watchSvc = watcher.NewWatcher(cfg.Watch.InboxDir, cfg.Watch.Extensions, components.Service,
					watcher.WithLogger(logger))
				if err := watchSvc.Start(watchCtx); err != nil {
					return err
				}
				watchSvc.SyncExistingFiles()
				logger.Info("watching inbox", zap.String("inbox", watchSvc.Inbox()))
			}

			srv := server.NewServer(components.Service, components.Storage, components.Metrics, &cfg.Server, logger)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case <-sigChan:
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}

			logger.Info("Shutting down...")
			if watchSvc != nil {
				watchSvc.Stop()
			}
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Stop(ctx)
		},
	}
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var (
		collectionID int64
		documentID   int64
		fileType     string
	)
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Extract, chunk and index a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.format()
			if err != nil {
				return err
			}
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			components, err := initializeComponents(cfg, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			result, err := components.Service.IngestSync(cmd.Context(), models.IngestRequest{
				DocumentID:   documentID,
				CollectionID: collectionID,
				FilePath:     args[0],
				FileType:     fileType,
			})
			if err != nil {
				return err
			}
			return cli.WriteIngestResult(cmd.OutOrStdout(), result, format)
		},
	}
	cmd.Flags().Int64VarP(&collectionID, "collection", "c", 0, "collection id")
	cmd.Flags().Int64VarP(&documentID, "document", "d", 0, "document id")
	cmd.Flags().StringVarP(&fileType, "type", "t", "", "declared file type (defaults to the file extension)")
	_ = cmd.MarkFlagRequired("collection")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	var collectionID, documentID int64
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a document from its collection index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requirePositive(collectionID, "collection"); err != nil {
				return err
			}
			if err := requirePositive(documentID, "document"); err != nil {
				return err
			}
			cfg, logger, err := opts.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			components, err := initializeComponents(cfg, logger)
			if err != nil {
				return err
			}
			defer components.Close()

			if err := components.Service.RemoveFromIndex(cmd.Context(), collectionID, documentID); err != nil {
				return err
			}
			cmd.Printf("Removed document %d from collection %d\n", documentID, collectionID)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&collectionID, "collection", "c", 0, "collection id")
	cmd.Flags().Int64VarP(&documentID, "document", "d", 0, "document id")
	_ = cmd.MarkFlagRequired("collection")
	_ = cmd.MarkFlagRequired("document")
	return cmd
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		collectionID int64
		serverURL    string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from a collection",
		Long: `Answer a question from a collection. The question is all remaining arguments
joined by spaces. With --server the question is sent to a running kotae server.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePositive(collectionID, "collection"); err != nil {
				return err
			}
			format, err := opts.format()
			if err != nil {
				return err
			}
			question := strings.Join(args, " ")

			var result *models.QueryResult
			if serverURL != "" {
				result, err = newRemoteClient(serverURL).Answer(cmd.Context(), collectionID, question)
			} else {
				result, err = withService(opts, func(svc *rag.Service) (*models.QueryResult, error) {
					res, err := svc.Answer(cmd.Context(), collectionID, question)
					if errors.Is(err, rag.ErrGeneration) {
						return &models.QueryResult{Answer: rag.MsgGenerationFailed, Sources: []models.Source{}}, nil
					}
					return res, err
				})
			}
			if err != nil {
				return err
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), result, format)
		},
	}
	cmd.Flags().Int64VarP(&collectionID, "collection", "c", 0, "collection id")
	cmd.Flags().StringVar(&serverURL, "server", "", "base URL of a running kotae server")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var (
		collectionID int64
		serverURL    string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and LLM status for a collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requirePositive(collectionID, "collection"); err != nil {
				return err
			}
			format, err := opts.format()
			if err != nil {
				return err
			}
			var status *models.CollectionStatus
			if serverURL != "" {
				status, err = newRemoteClient(serverURL).Status(cmd.Context(), collectionID)
			} else {
				status, err = withService(opts, func(svc *rag.Service) (*models.CollectionStatus, error) {
					return svc.Status(cmd.Context(), collectionID)
				})
			}
			if err != nil {
				return err
			}
			return cli.WriteStatus(cmd.OutOrStdout(), status, format)
		},
	}
	cmd.Flags().Int64VarP(&collectionID, "collection", "c", 0, "collection id")
	cmd.Flags().StringVar(&serverURL, "server", "", "base URL of a running kotae server")
	_ = cmd.MarkFlagRequired("collection")
	return cmd
}

// withService runs fn against freshly initialized local components.
func withService[T any](opts *rootOptions, fn func(*rag.Service) (T, error)) (T, error) {
	var zero T
	cfg, logger, err := opts.setup()
	if err != nil {
		return zero, err
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return zero, err
	}
	defer components.Close()
	return fn(components.Service)
}
