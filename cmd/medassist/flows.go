package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/medportal/medassist/internal/config"
	"github.com/medportal/medassist/internal/flow"
	"github.com/medportal/medassist/internal/model"
	"github.com/medportal/medassist/internal/pipe"
	"github.com/medportal/medassist/internal/prompt"
	"github.com/medportal/medassist/internal/ui"
)

func newFlowsCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "flows",
		Short:   "List, inspect and run flows",
		Aliases: []string{"flow"},
		Long: `List, inspect and run flows.

Built-in flows are always available. Additional flows are loaded from
directories, first found wins:
  1. Project flows (.medassist/flows/)
  2. User flows (~/.config/medassist/flows/)
  3. Installed flows (~/.local/share/medassist/flows/)`,
	}

	cmd.AddCommand(listFlowsCmd(cfgPath))
	cmd.AddCommand(showFlowCmd(cfgPath))
	cmd.AddCommand(runFlowCmd(cfgPath))
	cmd.AddCommand(validateFlowCmd())

	return cmd
}

func loadRegistry(cfg config.Config) (*flow.Registry, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	return buildRegistry(cfg, logger)
}

func listFlowsCmd(cfgPath *string) *cobra.Command {
	var sourceFilter string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cfgPath, func(cfg config.Config) error {
				reg, err := loadRegistry(cfg)
				if err != nil {
					return err
				}

				var defs []flow.Definition
				for _, def := range reg.Definitions() {
					if sourceFilter == "" || string(def.Source) == sourceFilter {
						defs = append(defs, def)
					}
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return outputFlowsJSON(out, defs)
				}
				if len(defs) == 0 {
					fmt.Fprintln(out, "No flows found.")
					return nil
				}
				outputFlowsTable(out, defs)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sourceFilter, "source", "", "Filter by source (built-in, installed, user, project)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

type flowJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version,omitempty"`
	Source      string `json:"source"`
	Path        string `json:"path,omitempty"`
}

func toFlowJSON(def flow.Definition) flowJSON {
	return flowJSON{
		Name:        def.Name,
		Description: def.Description,
		Version:     def.Version,
		Source:      string(def.Source),
		Path:        def.Path,
	}
}

func outputFlowsJSON(w io.Writer, defs []flow.Definition) error {
	out := make([]flowJSON, 0, len(defs))
	for _, def := range defs {
		out = append(out, toFlowJSON(def))
	}
	return writeJSON(w, out)
}

func outputFlowsTable(w io.Writer, defs []flow.Definition) {
	nameWidth := 20
	sourceWidth := 10
	versionWidth := 8
	for _, def := range defs {
		if len(def.Name) > nameWidth {
			nameWidth = len(def.Name)
		}
	}
	if nameWidth > 30 {
		nameWidth = 30
	}

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		ui.HeaderStyle.Render(padRight("NAME", nameWidth)),
		ui.HeaderStyle.Render(padRight("SOURCE", sourceWidth)),
		ui.HeaderStyle.Render(padRight("VERSION", versionWidth)),
		ui.HeaderStyle.Render("DESCRIPTION"),
	)

	for _, def := range defs {
		name := def.Name
		if len(name) > nameWidth {
			name = name[:nameWidth-3] + "..."
		}
		desc := def.Description
		if len(desc) > 50 {
			desc = desc[:47] + "..."
		}
		version := def.Version
		if version == "" {
			version = "-"
		}

		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			ui.NameStyle.Render(padRight(name, nameWidth)),
			ui.MutedStyle.Render(padRight(string(def.Source), sourceWidth)),
			ui.MutedStyle.Render(padRight(version, versionWidth)),
			ui.TextStyle.Render(desc),
		)
	}
}

func showFlowCmd(cfgPath *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a flow's schemas and prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cfgPath, func(cfg config.Config) error {
				reg, err := loadRegistry(cfg)
				if err != nil {
					return err
				}
				def, ok := reg.Lookup(args[0])
				if !ok {
					return &flow.Error{Kind: flow.ErrUnknownFlow, Flow: args[0]}
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, map[string]any{
						"flow":   toFlowJSON(def),
						"input":  def.Input.JSONSchema(),
						"output": def.Output.JSONSchema(),
						"prompt": def.Prompt,
					})
				}

				fmt.Fprintln(out, ui.NameStyle.Render(def.Name))
				if def.Description != "" {
					fmt.Fprintln(out, ui.TextStyle.Render(def.Description))
				}
				fmt.Fprintln(out)
				fmt.Fprintf(out, "%s %s\n", ui.LabelStyle.Render("Source:"), def.Source)
				if def.Version != "" {
					fmt.Fprintf(out, "%s %s\n", ui.LabelStyle.Render("Version:"), def.Version)
				}
				if def.Path != "" {
					fmt.Fprintf(out, "%s %s\n", ui.LabelStyle.Render("Path:"), def.Path)
				}
				fmt.Fprintf(out, "%s %s\n", ui.LabelStyle.Render("Placeholders:"), strings.Join(prompt.Placeholders(def.Prompt), ", "))

				for _, section := range []struct {
					title string
					doc   any
				}{
					{"Input schema", def.Input.JSONSchema()},
					{"Output schema", def.Output.JSONSchema()},
				} {
					fmt.Fprintln(out)
					fmt.Fprintln(out, ui.HeaderStyle.Render(section.title))
					if err := writeJSON(out, section.doc); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runFlowCmd(cfgPath *string) *cobra.Command {
	var inputFile string
	var stubFile string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run <name> [input-json]",
		Short: "Run a flow",
		Long: `Run a flow with a JSON object as input.

Input is read from the argument, from --input-file, or from piped stdin,
in that order. With --stub the model is replaced by a file holding a
canned response, which is useful for trying flows offline.`,
		Example: `  medassist flows run diseaseTrends '{"region":"India","timeframe":"last 30 days"}'
  echo '{"prescriptionText":"Amoxicillin 500mg"}' | medassist flows run prescriptionAnalysis`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cfgPath, func(cfg config.Config) error {
				name := args[0]

				raw, err := readInput(args[1:], inputFile)
				if err != nil {
					return err
				}
				input, err := decodeInput(raw)
				if err != nil {
					return reportFlowError(cmd.ErrOrStderr(), &flow.Error{Kind: flow.ErrInvalidInput, Flow: name, Err: err})
				}

				logger, err := newLogger(cfg)
				if err != nil {
					return err
				}
				reg, err := buildRegistry(cfg, logger)
				if err != nil {
					return err
				}
				def, ok := reg.Lookup(name)
				if !ok {
					return reportFlowError(cmd.ErrOrStderr(), &flow.Error{Kind: flow.ErrUnknownFlow, Flow: name})
				}

				var m model.Model
				if stubFile != "" {
					m, err = stubModel(stubFile)
				} else {
					m, err = buildModel(cmd.Context(), cfg)
				}
				if err != nil {
					return err
				}

				exec := buildExecutor(cfg, reg, m, logger)
				inv, err := exec.Run(cmd.Context(), name, input)
				if err != nil {
					return reportFlowError(cmd.ErrOrStderr(), err)
				}

				out := cmd.OutOrStdout()
				if jsonOutput || pipe.IsStdoutPiped() {
					return writeJSON(out, inv.Output)
				}
				fmt.Fprintln(out, ui.RenderOutput(inv.Output, def.Output))
				fmt.Fprintln(out, ui.MutedStyle.Render(fmt.Sprintf("%s · %s · %d attempt(s) · %s",
					inv.ID, inv.Model, inv.Attempts, inv.Duration.Round(time.Millisecond))))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input-file", "f", "", "read input JSON from a file")
	cmd.Flags().StringVar(&stubFile, "stub", "", "answer from a canned response file instead of a model")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// readInput returns the raw input from the argument, the input file or
// piped stdin. No input at all is an empty object.
func readInput(args []string, inputFile string) (string, error) {
	switch {
	case len(args) > 0:
		return args[0], nil
	case inputFile != "":
		f, err := os.Open(inputFile)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		defer f.Close()
		return pipe.ReadAll(f)
	case pipe.IsStdinPiped():
		data, err := pipe.ReadStdin()
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	return "", nil
}

func decodeInput(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var input map[string]any
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return nil, errors.New("input must be a JSON object")
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}

// stubModel answers every request with the contents of path.
func stubModel(path string) (model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stub response: %w", err)
	}
	return model.Func(func(ctx context.Context, req model.Request) (*model.Response, error) {
		return &model.Response{Raw: data, Model: "stub"}, nil
	}), nil
}

// reportFlowError prints a flow failure and marks it as reported.
func reportFlowError(w io.Writer, err error) error {
	var fe *flow.Error
	if !errors.As(err, &fe) {
		return err
	}

	kind := flow.KindOf(err)
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.ErrorStyle.Render(fmt.Sprintf("  %s %s: %s", ui.IconError, kind, fe.Flow)))
	if fe.Path != "" {
		fmt.Fprintf(w, "  %s %s\n", ui.LabelStyle.Render("Field:"), fe.Path)
	}
	if fe.Err != nil {
		fmt.Fprintf(w, "  %s %s\n", ui.LabelStyle.Render("Detail:"), fe.Err)
	}
	if errors.Is(err, flow.ErrModelUnavailable) {
		fmt.Fprintln(w, "  "+ui.WarningStyle.Render("The assistant is temporarily unavailable. Please try again."))
	}
	fmt.Fprintln(w)

	return &reportedError{err: err}
}

func validateFlowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>...",
		Short: "Check flow package directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, dir := range args {
				def, err := flow.DiscoverOne(dir)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%s %s\n", ui.ErrorStyle.Render(ui.IconError), err)
					continue
				}
				fmt.Fprintf(out, "%s %s %s\n",
					ui.SuccessStyle.Render(ui.IconSuccess),
					ui.NameStyle.Render(def.Name),
					ui.MutedStyle.Render(def.Version))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d flow packages invalid", failed, len(args))
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
