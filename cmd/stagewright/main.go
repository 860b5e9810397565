// Package main is the entry point for the stagewright CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flemzord/stagewright/internal/config"
	"github.com/flemzord/stagewright/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errRejected marks a tool call that ran but was refused (a soft failure).
// The result has already been printed.
var errRejected = errors.New("tool call rejected")

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, errRejected) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stagewright",
		Short:         "Capability-gated write tools for autonomous agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringP("workspace", "w", "", "Workspace root (overrides workspace.root)")

	root.AddCommand(
		versionCmd(),
		serveCmd(),
		mcpCmd(),
		toolsCmd(),
		invokeCmd(),
		proposalsCmd(),
		memoryCmd(),
		configCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stagewright %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway and the review scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)
			return a.Serve(cmd.Context())
		},
	}
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the agent tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)
			return a.ServeMCP(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("config", args[0]); err != nil {
					return err
				}
			}
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if path == "" {
				path = "(built-in defaults)"
			}
			fmt.Fprintf(out, "Configuration OK: %s\n", path)
			fmt.Fprintf(out, "  workspace:  %s (namespace %s)\n", cfg.Workspace.Root, cfg.Workspace.Namespace)
			fmt.Fprintf(out, "  autonomy:   %s\n", cfg.Security.Autonomy)
			fmt.Fprintf(out, "  gateway:    %s (auth: %t)\n", cfg.Gateway.Bind, cfg.Gateway.Auth.IsConfigured())
			fmt.Fprintf(out, "  ledger:     %s\n", enabledPath(cfg.Ledger.IsEnabled(), cfg.Ledger.Path))
			fmt.Fprintf(out, "  audit:      %s\n", enabledPath(cfg.Audit.IsEnabled(), cfg.Audit.Path))
			fmt.Fprintf(out, "  cron:       %t\n", cfg.Cron.IsEnabled())
			return nil
		},
	})
	return cmd
}

// loadConfig resolves and validates the configuration named by the
// persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	root, _ := cmd.Flags().GetString("workspace")

	var overrides []func(*config.Config)
	if root != "" {
		overrides = append(overrides, func(c *config.Config) { c.Workspace.Root = root })
	}
	return config.LoadOrDefault(cfgPath, overrides...)
}

func newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), app.Params{
		Config:     cfg,
		ConfigPath: path,
		Version:    version,
		LogOutput:  cmd.ErrOrStderr(),
	})
}

func closeApp(cmd *cobra.Command, a *app.App) {
	if err := a.Close(cmd.Context()); err != nil {
		a.Logger.Error("shutdown failed", "error", err)
	}
}

func enabledPath(enabled bool, path string) string {
	if !enabled {
		return "disabled"
	}
	return path
}
