package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bayesaudit/pkg/checkpoint"
	"github.com/matzehuels/bayesaudit/pkg/config"
)

// storeFlags selects the checkpoint store of the checkpoint subcommands.
type storeFlags struct {
	redisURL string
	dir      string
}

func (s *storeFlags) open() (checkpoint.Store, error) {
	cfg := config.Checkpoint{Backend: config.BackendFile, Dir: s.dir, RedisURL: s.redisURL}
	if s.redisURL != "" {
		cfg.Backend = config.BackendRedis
	}
	return newStore(cfg)
}

// checkpointCommand creates the checkpoint management command.
func (c *CLI) checkpointCommand() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage saved audit state",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("redis-url") {
				f := &config.File{}
				f.ApplyEnv()
				flags.redisURL = f.Checkpoint.RedisURL
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&flags.redisURL, "redis-url", "", "use the redis store (or "+config.EnvRedisURL+")")
	cmd.PersistentFlags().StringVar(&flags.dir, "dir", "", "file store directory (default: user cache)")

	cmd.AddCommand(c.checkpointListCommand(&flags))
	cmd.AddCommand(c.checkpointDeleteCommand(&flags))
	cmd.AddCommand(c.checkpointClearCommand(&flags))
	cmd.AddCommand(c.checkpointPathCommand(&flags))

	return cmd
}

// checkpointListCommand creates the "checkpoint list" subcommand.
func (c *CLI) checkpointListCommand(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved audits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.open()
			if err != nil {
				return err
			}
			defer store.Close()

			cps, err := checkpoint.List(cmd.Context(), store)
			if err != nil {
				return err
			}
			if len(cps) == 0 {
				printInfo("No saved audits")
				return nil
			}
			fmt.Println(checkpointTable(cps, time.Now()))
			printNextStep("Continue one with", "bayesaudit audit --contest <id> --resume")
			return nil
		},
	}
}

func checkpointTable(cps []*checkpoint.Checkpoint, now time.Time) string {
	rows := make([][]string, len(cps))
	for i, cp := range cps {
		rows[i] = []string{
			cp.ContestID,
			cp.AuditID,
			fmt.Sprint(cp.Stage),
			drawnOf(cp.Drawn, cp.Population),
			humanize.RelTime(cp.SavedAt, now, "ago", "from now"),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Contest", "Audit", "Stage", "Drawn", "Saved").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 0 {
				return StyleValue.Bold(true)
			}
			return StyleDim
		}).
		Render()
}

// checkpointDeleteCommand creates the "checkpoint delete" subcommand.
func (c *CLI) checkpointDeleteCommand(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <contest>...",
		Short: "Delete the saved state of contests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.open()
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if err := checkpoint.Delete(cmd.Context(), store, id); err != nil {
					return err
				}
				printSuccess("Deleted checkpoint of %s", id)
			}
			return nil
		},
	}
}

// checkpointClearCommand creates the "checkpoint clear" subcommand.
func (c *CLI) checkpointClearCommand(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved audit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := flags.open()
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := checkpoint.Clear(cmd.Context(), store)
			if err != nil {
				return err
			}
			if n == 0 {
				printInfo("No saved audits")
				return nil
			}
			printSuccess("Cleared %d checkpoints", n)
			if fs, ok := store.(*checkpoint.FileStore); ok {
				printDetail("Directory: %s", fs.Dir())
			}
			return nil
		},
	}
}

// checkpointPathCommand creates the "checkpoint path" subcommand.
func (c *CLI) checkpointPathCommand(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the checkpoint directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dir != "" {
				fmt.Println(flags.dir)
				return nil
			}
			dir, err := checkpointDir()
			if err != nil {
				return fmt.Errorf("get checkpoint dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
