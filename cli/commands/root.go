// Package commands implements the CLI's two subcommands: ping (verify
// connectivity) and exec (run one statement), dispatched via cobra the way
// several other repos in the retrieval pack do, generalizing the teacher's
// hand-rolled os.Args[1] switch.
package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oceandrift/database/cli/internal/config"
	"github.com/oceandrift/database/driver"
	"github.com/oceandrift/database/driver/mariadb"
	"github.com/oceandrift/database/driver/sqlite"
)

var errColor = color.New(color.FgRed, color.Bold)
var okColor = color.New(color.FgGreen, color.Bold)

// Execute builds and runs the root cobra command.
func Execute() error {
	root := &cobra.Command{
		Use:   "database",
		Short: "Inspect and exercise a SQLite or MariaDB connection",
	}
	root.AddCommand(pingCommand())
	root.AddCommand(execCommand())
	return root.Execute()
}

func pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Open a connection and verify it responds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			conn, err := open(cfg)
			if err != nil {
				errColor.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			defer conn.Close()
			okColor.Fprintln(cmd.OutOrStdout(), "connected")
			return nil
		},
	}
}

func execCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql>",
		Short: "Run one SQL statement and discard any result set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			conn, err := open(cfg)
			if err != nil {
				errColor.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			defer conn.Close()
			if err := conn.Execute(args[0]); err != nil {
				errColor.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			okColor.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func open(cfg *config.Config) (driver.Conn, error) {
	switch cfg.Dialect {
	case "mariadb":
		return mariadb.Open(mariadb.Config{
			Host:     cfg.MariaDBHost,
			Port:     cfg.MariaDBPort,
			User:     cfg.MariaDBUser,
			Password: cfg.MariaDBPassword,
			Database: cfg.MariaDBDatabase,
		})
	case "sqlite", "":
		return sqlite.Open(cfg.SQLitePath, driver.OpenCreate|driver.OpenReadWrite)
	default:
		return nil, fmt.Errorf("database: unknown dialect %q", cfg.Dialect)
	}
}
