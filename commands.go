package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"discharge_backend/core"
	"discharge_backend/core/validation"
	"discharge_backend/docrender"
	"discharge_backend/llm"
	"discharge_backend/logging"
	"discharge_backend/metrics"
	"discharge_backend/pdfprocessor"
	"discharge_backend/pipeline"
	"discharge_backend/shutdown"
	"discharge_backend/summary"
	"discharge_backend/webui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func serveCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the upload and review web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, logger, probe)
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Check that the model endpoint is reachable before starting")
	return cmd
}

func runServer(ctx context.Context, logger *logging.Logger, probe bool) error {
	cfg, err := loadConfig(logger)
	if err != nil {
		return err
	}

	result := validation.NewSuite(cfg).WithConnectivityProbe(probe).Validate(ctx)
	if !result.Success {
		logger.Error("Configuration validation failed",
			zap.Int("passed", result.PassedSteps),
			zap.Int("failed", result.FailedSteps),
			zap.Duration("duration", result.Duration))
		for _, step := range result.Steps {
			if step.Status == validation.StepFailed {
				logger.Error("Validation step failed",
					zap.String("step", step.Name),
					zap.String("message", step.Message),
					zap.Error(step.Error))
			}
		}
		if err := result.FirstError(); err != nil {
			return err
		}
		return errors.New(result.Summary())
	}

	store := metrics.NewStore(metrics.StoreConfig{
		HistoryCapacity: metrics.DefaultStoreConfig().HistoryCapacity,
		Version:         core.GetVersion(),
	}, time.Now())
	collector := metrics.NewCollector(store)

	service, err := buildService(cfg, logger, collector, true)
	if err != nil {
		return err
	}

	server, err := webui.NewServer(webui.ServerConfigFromCore(cfg), service, collector, logger.Named("webui").Zap())
	if err != nil {
		return err
	}

	registry := shutdown.NewRegistry(logger.Named("shutdown").Zap())
	registry.Register("http server", shutdown.PriorityServer, server.Shutdown)
	registry.Register("record store", shutdown.PriorityWorkers, func(context.Context) error {
		logger.Info("Discarding records awaiting review", zap.Int("count", service.Store().Count()))
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(ctx) }()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logger.Info("Received interrupt signal. Shutting down...")
	}

	if err := registry.Shutdown(context.Background()); err != nil {
		return errors.Join(serveErr, err)
	}
	if serveErr != nil {
		return serveErr
	}
	logger.Info("Goodbye!")
	return nil
}

// buildService wires the pipeline from cfg. withModel is false for commands
// that never call the model, so they run without an API key.
func buildService(cfg *core.Config, logger *logging.Logger, collector *metrics.Collector, withModel bool) (*pipeline.Service, error) {
	deps := pipeline.Deps{
		Extractor: pdfprocessor.NewExtractor(pdfprocessor.DefaultExtractorConfig(), logger.Named("pdf").Zap()),
		Store:     pipeline.NewRecordStore(cfg.SessionTTL),
		Logger:    logger.Named("pipeline").Zap(),
	}
	if collector != nil {
		deps.Recorder = collector
	}

	if withModel {
		client, err := llm.NewJSONClientFromConfig(cfg, logger.Named("llm").Zap())
		if err != nil {
			return nil, err
		}
		if collector != nil {
			client = client.WithObserver(collector)
		}
		deps.Model = client
	}

	if cfg.TemplatePath != "" {
		aliases, err := docrender.LoadAliasTable(cfg.TemplateAliasesFile)
		if err != nil {
			return nil, err
		}
		renderer, err := docrender.NewRenderer(cfg.TemplatePath)
		if err != nil {
			return nil, err
		}
		deps.Builder = docrender.NewContextBuilder(aliases)
		deps.Renderer = docrender.NewEngine(renderer, logger.Named("render").Zap())
	}

	return pipeline.NewService(deps), nil
}

func extractCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Extract a discharge record from a PDF and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			cfg.TemplatePath = ""

			service, err := buildService(cfg, logger, nil, true)
			if err != nil {
				return err
			}

			rec, err := service.ExtractRecordFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			out = append(out, '\n')

			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			logger.Info("Record written", zap.String("path", output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the record to this file instead of stdout")
	return cmd
}

func renderCmd() *cobra.Command {
	var editsPath, templatePath, outputDir string

	cmd := &cobra.Command{
		Use:   "render <record.json>",
		Short: "Merge reviewer edits into a record and render the template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := loadConfig(logger)
			if err != nil {
				return err
			}
			if templatePath != "" {
				cfg.TemplatePath = templatePath
			}

			service, err := buildService(cfg, logger, nil, false)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read record: %w", err)
			}
			rec, err := summary.NormalizeJSON(data)
			if err != nil {
				return err
			}

			edits, err := loadEdits(editsPath)
			if err != nil {
				return err
			}

			doc, err := service.Render(cmd.Context(), rec, edits)
			if err != nil {
				return err
			}

			path := filepath.Join(outputDir, doc.Filename)
			if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().StringVar(&editsPath, "edits", "", "YAML file of reviewer edits keyed by form field")
	cmd.Flags().StringVar(&templatePath, "template", "", "Template to render (default: TEMPLATE_PATH)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory for the rendered document")
	return cmd
}

// loadEdits reads a YAML mapping of form field to value. An empty path
// means no edits.
func loadEdits(path string) (summary.Edits, error) {
	if path == "" {
		return summary.Edits{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edits: %w", err)
	}

	var edits summary.Edits
	if err := yaml.Unmarshal(data, &edits); err != nil {
		return nil, fmt.Errorf("failed to parse edits %s: %w", path, err)
	}
	if edits == nil {
		edits = summary.Edits{}
	}
	return edits, nil
}
