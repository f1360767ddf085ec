package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/fishbowl/internal/config"
	"github.com/danmuck/fishbowl/internal/fishbowl"
	"github.com/danmuck/fishbowl/internal/logging"
	"github.com/danmuck/fishbowl/internal/protocol/codec"
	"github.com/danmuck/fishbowl/internal/session"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	format     string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "fishbowlctl",
		Short:         "Talk to a Fishbowl inventory server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "fishbowl.toml", "connection config path")
	root.PersistentFlags().StringVar(&a.format, "format", "", "wire format override: xml|json")

	root.AddCommand(
		a.requestCmd(),
		a.importCmd(),
		a.importsCmd(),
		a.headersCmd(),
		a.exportsCmd(),
		a.exportCmd(),
		a.queryCmd(),
		configCmd(),
	)
	return root
}

// run loads the config, opens one session and hands it to fn.
func (a *app) run(cmd *cobra.Command, fn func(*fishbowl.Client) error) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.format != "" {
		cfg.Connect.Format = a.format
	}
	logger := logging.ConfigureRuntime()
	if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok && os.Getenv(logging.EnvLogLevel) == "" {
		logger = logger.Level(lvl)
	}
	sc, err := cfg.SessionConfig(logger)
	if err != nil {
		return err
	}
	return fishbowl.Open(cmd.Context(), sc, cfg.Connect.Username, cfg.Connect.Password, fn)
}

func (a *app) requestCmd() *cobra.Command {
	var responseNode string
	cmd := &cobra.Command{
		Use:   "request <RequestName> [json-value]",
		Short: "Send a raw request and print the response",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if len(args) == 2 {
				v, err := codec.DecodeOrderedJSON([]byte(args[1]))
				if err != nil {
					return fmt.Errorf("request value: %w", err)
				}
				value = v
			}
			return a.run(cmd, func(c *fishbowl.Client) error {
				node, err := c.SendRequest(session.Call{
					Name:         args[0],
					Value:        value,
					ResponseNode: responseNode,
					Multiple:     true,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), codec.Render(node))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&responseNode, "response-node", "", "return only this node of the response")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <ImportType> <rows.csv>",
		Short: "Run a bulk import from a CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readCSV(args[1])
			if err != nil {
				return err
			}
			return a.run(cmd, func(c *fishbowl.Client) error {
				if err := c.RunImport(args[0], fishbowl.FormatRows(rows)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows\n", len(rows))
				return nil
			})
		},
	}
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rows: %w", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read rows (%s): %w", path, err)
		}
		rows = append(rows, rec)
	}
}

func (a *app) importsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "imports",
		Short: "List available import types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(c *fishbowl.Client) error {
				names, err := c.GetAvailableImports()
				if err != nil {
					return err
				}
				printLines(cmd, names)
				return nil
			})
		},
	}
}

func (a *app) headersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers <ImportType>",
		Short: "Print the CSV header an import expects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(c *fishbowl.Client) error {
				header, err := c.GetImportHeaders(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), header)
				return nil
			})
		},
	}
}

func (a *app) exportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exports",
		Short: "List available export types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(c *fishbowl.Client) error {
				names, err := c.GetAvailableExports()
				if err != nil {
					return err
				}
				printLines(cmd, names)
				return nil
			})
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <ExportType>",
		Short: "Run an export and print its CSV rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(c *fishbowl.Client) error {
				lines, err := c.RunExport(args[0])
				if err != nil {
					return err
				}
				printLines(cmd, lines)
				return nil
			})
		},
	}
}

func (a *app) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run SQL through the query gateway",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sql := strings.Join(args, " ")
			return a.run(cmd, func(c *fishbowl.Client) error {
				rows, err := c.SendQuery(sql)
				if err != nil {
					return err
				}
				data := pterm.TableData{rows.Columns()}
				for rows.Next() {
					data = append(data, rows.Row().Values())
				}
				if err := rows.Err(); err != nil {
					return err
				}
				if len(data) == 1 && len(data[0]) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no rows")
					return nil
				}
				return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
			})
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the connection config",
	}
	var output string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteTemplate(output, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote config template to %s\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVar(&output, "output", "fishbowl.toml", "output path for the config template")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)
	return cmd
}

func printLines(cmd *cobra.Command, lines []string) {
	out := cmd.OutOrStdout()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}
