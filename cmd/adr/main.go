package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/adr/internal"
	pkgconfig "github.com/starford/adr/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// dispatch loads the configuration and runs op.
func dispatch(ctx context.Context, cmd *cli.Command, op internal.Op) error {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if dir := cmd.String("dir"); dir != "" {
		cfg.Store.Dir = dir
	}
	return internal.Run(ctx, op, internal.WithConfig(cfg), internal.WithVersion(version))
}

func recordID(cmd *cli.Command) (int, error) {
	arg := cmd.Args().First()
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, cli.Exit(fmt.Sprintf("%q is not a record id", arg), 2)
	}
	return id, nil
}

var supersedeFlag = &cli.StringSliceFlag{
	Name:    "supersede",
	Aliases: []string{"s"},
	Usage:   "id of a record superseded by this one (repeatable)",
}

func main() {
	cmd := &cli.Command{
		Name:    "adr",
		Usage:   "Record architecture decisions as numbered Markdown files",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: ".adr/config.yaml",
				Value:       ".adr/config.yaml",
				Sources:     cli.EnvVars("ADR_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "Record directory relative to the project root",
				Sources: cli.EnvVars("ADR_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return dispatch(ctx, cmd, internal.HelpOp{})
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create the record directory and record 1",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return dispatch(ctx, cmd, internal.InitOp{})
				},
			},
			{
				Name:      "new",
				Usage:     "Create the next record",
				ArgsUsage: "TITLE...",
				Flags: []cli.Flag{
					supersedeFlag,
					&cli.BoolFlag{Name: "no-edit", Usage: "do not open the editor"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return dispatch(ctx, cmd, internal.NewOp{
						Title:      strings.Join(cmd.Args().Slice(), " "),
						Supersedes: cmd.StringSlice("supersede"),
						NoEdit:     cmd.Bool("no-edit"),
					})
				},
			},
			{
				Name:  "list",
				Usage: "Print records in id order",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "long", Aliases: []string{"l"}, Usage: "show id, status and title"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return dispatch(ctx, cmd, internal.ListOp{Long: cmd.Bool("long")})
				},
			},
			{
				Name:      "link",
				Usage:     "Mark records as superseded by an existing record",
				ArgsUsage: "ID",
				Flags:     []cli.Flag{supersedeFlag},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := recordID(cmd)
					if err != nil {
						return err
					}
					return dispatch(ctx, cmd, internal.LinkOp{ID: id, Supersedes: cmd.StringSlice("supersede")})
				},
			},
			{
				Name:      "show",
				Usage:     "Print a record",
				ArgsUsage: "ID",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := recordID(cmd)
					if err != nil {
						return err
					}
					return dispatch(ctx, cmd, internal.ShowOp{ID: id})
				},
			},
			{
				Name:  "check",
				Usage: "Report supersede links without a counterpart",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return dispatch(ctx, cmd, internal.CheckOp{})
				},
			},
			{
				Name:  "serve",
				Usage: "Run the HTTP API with a live SQLite index",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return dispatch(ctx, cmd, internal.ServeOp{})
				},
			},
			{
				Name:  "mcp",
				Usage: "Run the MCP server on stdin/stdout",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return dispatch(ctx, cmd, internal.MCPOp{})
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "adr:", err)
		os.Exit(1)
	}
}
