package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/flemzord/stagewright/internal/ledger"
	"github.com/flemzord/stagewright/internal/memory"
	"github.com/flemzord/stagewright/internal/workspace"
)

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the registered agent tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			descs := a.Registry.Describe()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), descs)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tOPERATION\tDESCRIPTION")
			for _, d := range descs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.Operation, d.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "Print full descriptors, schemas included, as JSON")
	return cmd
}

func invokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <tool> [json-args|-]",
		Short: "Run one tool call through the security gate",
		Long: `Run one tool call through the security gate and print its result as JSON.
Arguments are a JSON object given inline, or "-" to read it from stdin.
Exits 1 on a hard failure and 2 when the tool rejected the call.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw json.RawMessage
			if len(args) == 2 {
				src := args[1]
				if src == "-" {
					data, err := io.ReadAll(cmd.InOrStdin())
					if err != nil {
						return fmt.Errorf("reading arguments: %w", err)
					}
					src = string(data)
				}
				raw = json.RawMessage(strings.TrimSpace(src))
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			res, err := a.Registry.Execute(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return errRejected
			}
			return nil
		},
	}
}

func proposalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "Inspect the artifact ledger",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded artifacts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kindFlag, _ := cmd.Flags().GetString("kind")
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")

			kind, err := ledger.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("limit must not be negative")
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)
			if a.Ledger == nil {
				return fmt.Errorf("ledger is disabled in configuration")
			}

			records, err := a.Ledger.List(cmd.Context(), ledger.Filter{
				Kind:   kind,
				Status: status,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				if records == nil {
					records = []ledger.Record{}
				}
				return writeJSON(cmd.OutOrStdout(), records)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tKIND\tSTATUS\tPATH\tTITLE")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					r.CreatedAt.Local().Format(time.DateTime), r.Kind, r.Status, r.Path, r.Title)
			}
			return tw.Flush()
		},
	}
	list.Flags().String("kind", "", "Only list this kind (config_change, change, note)")
	list.Flags().String("status", "", "Only list this status (PENDING, APPENDED)")
	list.Flags().Int("limit", 0, "Maximum number of records (0 uses the ledger default)")
	list.Flags().Bool("json", false, "Print records as JSON")

	cmd.AddCommand(list)
	return cmd
}

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Read the shared notes log",
	}

	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Search notes by text and tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, _ := cmd.Flags().GetString("tag")
			limit, _ := cmd.Flags().GetInt("limit")

			var query string
			if len(args) == 1 {
				query = args[0]
			}
			if strings.TrimSpace(query) == "" && strings.TrimSpace(tag) == "" {
				return fmt.Errorf("a query or --tag is required")
			}

			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			root, err := filepath.Abs(cfg.Workspace.Root)
			if err != nil {
				return err
			}
			ws := workspace.New(root).WithNamespace(cfg.Workspace.Namespace)

			entries, err := memory.ReadNotes(ws.NotesPath())
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), memory.FormatMatches(memory.Search(entries, query, tag), limit))
			return err
		},
	}
	search.Flags().String("tag", "", "Only match notes carrying this tag")
	search.Flags().Int("limit", memory.MaxQueryResults, "Show at most this many of the most recent matches (0 for all)")

	cmd.AddCommand(search)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
