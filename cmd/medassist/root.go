package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medportal/medassist/internal/config"
	"github.com/medportal/medassist/internal/flow"
	"github.com/medportal/medassist/internal/healthflows"
	"github.com/medportal/medassist/internal/logging"
	"github.com/medportal/medassist/internal/model"
	"github.com/medportal/medassist/internal/ollama"
	"github.com/medportal/medassist/internal/paths"
)

// Process exit codes.
const (
	exitFailure = 1
	exitInput   = 2 // the request was wrong: unknown flow, bad input, bad template
	exitRemote  = 3 // the model failed or answered badly
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "medassist",
		Short:         "Schema-validated AI flows for health workers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", paths.ConfigFile(), "path to config file")

	cmd.AddCommand(newFlowsCmd(&cfgPath))
	cmd.AddCommand(newServeCmd(&cfgPath))
	cmd.AddCommand(newRecordsCmd(&cfgPath))
	cmd.AddCommand(newDoctorCmd(&cfgPath))
	cmd.AddCommand(newCredentialsCmd())

	return cmd
}

func loadConfig(cfgPath string) (config.Config, error) {
	return config.Load(cfgPath)
}

func withConfig(cfgPath *string, fn func(config.Config) error) error {
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	return fn(cfg)
}

func newLogger(cfg config.Config) (zerolog.Logger, error) {
	return logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
}

// buildRegistry registers the built-in health flows followed by flows
// discovered on disk. A discovered flow cannot replace a built-in one.
func buildRegistry(cfg config.Config, logger zerolog.Logger) (*flow.Registry, error) {
	reg := flow.NewRegistry()
	if err := healthflows.Register(reg); err != nil {
		return nil, err
	}

	discovered, err := flow.Discover(cfg.FlowDirectories())
	if err != nil {
		return nil, fmt.Errorf("discover flows: %w", err)
	}
	for _, def := range discovered {
		if err := reg.Register(def); err != nil {
			if errors.Is(err, flow.ErrDuplicateFlowName) {
				logger.Warn().Str("flow", def.Name).Str("path", def.Path).Msg("skipping flow with a built-in name")
				continue
			}
			return nil, err
		}
	}
	return reg, nil
}

// buildModel connects the configured model backend.
func buildModel(ctx context.Context, cfg config.Config) (model.Model, error) {
	if cfg.Backend == config.BackendOllama {
		client := ollama.NewClient(ollama.WithHost(cfg.Ollama.Host))
		return model.NewOllama(client, cfg.Ollama.Model), nil
	}

	lm, err := model.NewLanguageModel(ctx, cfg.Provider, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Provider.ID, err)
	}
	return model.NewFantasy(lm, cfg.Model), nil
}

func buildExecutor(cfg config.Config, reg *flow.Registry, m model.Model, logger zerolog.Logger) *flow.Executor {
	opts := []flow.Option{
		flow.WithLogger(logger),
		flow.WithTimeout(cfg.Timeout),
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, flow.WithRetry(cfg.MaxRetries, cfg.RetryBase))
	}
	return flow.NewExecutor(reg, m, opts...)
}

// reportedError marks an error the command already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func exitCode(err error) int {
	switch {
	case errors.Is(err, flow.ErrUnknownFlow),
		errors.Is(err, flow.ErrInvalidInput),
		errors.Is(err, flow.ErrTemplate):
		return exitInput
	case flow.IsRemote(err):
		return exitRemote
	default:
		return exitFailure
	}
}
