package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medportal/medassist/internal/config"
	"github.com/medportal/medassist/internal/docstore"
	"github.com/medportal/medassist/internal/model"
	"github.com/medportal/medassist/internal/ollama"
	"github.com/medportal/medassist/internal/paths"
	"github.com/medportal/medassist/internal/ui"
	"github.com/medportal/medassist/internal/version"
)

func newDoctorCmd(cfgPath *string) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, model access and storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, cfgErr := loadConfig(*cfgPath)
			if cfgErr != nil {
				cfg = config.Default()
			}

			labelStyle := ui.MutedStyle.Width(30)
			check := func(name string, ok bool, msg string) {
				status := ui.SuccessStyle.Render("OK")
				if !ok {
					status = ui.ErrorStyle.Render("FAIL")
				}
				fmt.Fprintf(out, "  %s %s %s\n", labelStyle.Render(name), status, msg)
			}
			warn := func(name, msg string) {
				fmt.Fprintf(out, "  %s %s %s\n", labelStyle.Render(name), ui.WarningStyle.Render("WARN"), msg)
			}
			header := func(title string) {
				fmt.Fprintln(out, ui.HeaderStyle.Render("  "+title))
			}

			var recommendations []string

			fmt.Fprintln(out)
			header("medassist doctor")
			header(strings.Repeat("-", 50))
			fmt.Fprintln(out)

			header("System")
			fmt.Fprintf(out, "  %s %s\n", labelStyle.Render("Version:"), version.Version)
			fmt.Fprintf(out, "  %s %s\n", labelStyle.Render("Go Version:"), runtime.Version())
			fmt.Fprintf(out, "  %s %s/%s\n", labelStyle.Render("Platform:"), runtime.GOOS, runtime.GOARCH)
			fmt.Fprintln(out)

			header("Configuration")
			switch {
			case cfgErr != nil:
				check("Config File:", false, cfgErr.Error())
				recommendations = append(recommendations, "Fix "+*cfgPath)
			case fileExists(*cfgPath):
				check("Config File:", true, *cfgPath)
			default:
				warn("Config File:", *cfgPath+" (using defaults)")
			}
			check("Backend:", true, cfg.Backend)
			if cfg.MaxRetries > 0 {
				check("Retries:", true, fmt.Sprintf("%d, base %s", cfg.MaxRetries, cfg.RetryBase))
			} else {
				check("Retries:", true, "off")
			}
			check("Timeout:", true, cfg.Timeout.String())
			fmt.Fprintln(out)

			header("Provider")
			if cfg.Backend == config.BackendProvider {
				check("Provider:", cfg.Provider.ID != "", fmt.Sprintf("%s (%s)", cfg.Provider.Name, cfg.Provider.Type))
				check("Model:", cfg.Model != "", cfg.Model)
				hasKey := model.ProviderAPIKey(cfg.Provider) != ""
				check("API Key:", hasKey, model.APIKeyEnv(cfg.Provider))
				if !hasKey {
					recommendations = append(recommendations,
						fmt.Sprintf("Set %s or run: medassist credentials set %s <key>", model.APIKeyEnv(cfg.Provider), cfg.Provider.ID))
				}
				models := config.ConfiguredModels(cfg)
				known := false
				for _, m := range models {
					if m.ID == cfg.Model {
						known = true
						break
					}
				}
				if len(models) > 0 && !known {
					warn("Catalog:", cfg.Model+" is not in the provider catalog")
				}
				if verbose {
					for _, m := range models {
						fmt.Fprintf(out, "       - %s %s\n", m.ID, ui.MutedStyle.Render(m.Name))
					}
				}
			}
			for _, p := range config.DetectProviders() {
				if p.HasKey {
					check(p.Name+":", true, p.EnvVar)
				} else if verbose {
					warn(p.Name+":", p.EnvVar+" not set")
				}
			}
			fmt.Fprintln(out)

			header("Ollama")
			ollamaPath, pathErr := exec.LookPath("ollama")
			if pathErr != nil {
				warn("Binary:", "not found in PATH")
			} else {
				check("Binary:", true, ollamaPath)
			}
			client := ollama.NewClient(ollama.WithHost(cfg.Ollama.Host))
			available := client.IsAvailable(ctx)
			if available {
				check("Service:", true, cfg.Ollama.Host)
				check("Model:", client.HasModel(ctx, cfg.Ollama.Model), cfg.Ollama.Model)
				if verbose {
					if models, err := client.ListModels(ctx); err == nil {
						for _, m := range models {
							fmt.Fprintf(out, "       - %s\n", m.Name)
						}
					}
				}
			} else if cfg.Backend == config.BackendOllama {
				check("Service:", false, cfg.Ollama.Host)
				recommendations = append(recommendations, "Start Ollama: ollama serve")
			} else {
				warn("Service:", "not running (only needed for the ollama backend)")
			}
			fmt.Fprintln(out)

			header("Document Store")
			if fileExists(cfg.DatabasePath) {
				store, err := docstore.Open(ctx, cfg.DatabasePath)
				if err != nil {
					check("Database:", false, err.Error())
				} else {
					check("Database:", true, cfg.DatabasePath)
					collections, err := store.Collections(ctx)
					if err != nil {
						check("Collections:", false, err.Error())
					} else {
						check("Collections:", true, fmt.Sprintf("%d", len(collections)))
					}
					store.Close()
				}
			} else {
				warn("Database:", cfg.DatabasePath+" not created yet")
			}
			fmt.Fprintln(out)

			header("Flows")
			for _, dir := range []string{paths.ProjectFlowsDir(), paths.UserFlowsDir(), paths.InstalledFlowsDir()} {
				if dirExists(dir) {
					check("Directory:", true, dir)
				} else if verbose {
					warn("Directory:", dir+" (missing)")
				}
			}
			logger, err := newLogger(cfg)
			if err != nil {
				check("Logging:", false, err.Error())
			}
			reg, err := buildRegistry(cfg, logger)
			if err != nil {
				check("Registry:", false, err.Error())
			} else {
				check("Registered:", true, strings.Join(reg.Names(), ", "))
			}
			fmt.Fprintln(out)

			if len(recommendations) > 0 {
				header("Recommendations")
				for _, r := range recommendations {
					fmt.Fprintf(out, "  - %s\n", r)
				}
				fmt.Fprintln(out)
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")

	return cmd
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
