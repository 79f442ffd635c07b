package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bayesaudit/pkg/buildinfo"
	"github.com/matzehuels/bayesaudit/pkg/checkpoint"
	"github.com/matzehuels/bayesaudit/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "bayesaudit"

	// defaultAddr is the listen address of the serve command.
	defaultAddr = ":8080"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Bayesian risk-limiting audits for ranked-choice contests",
		Long: `bayesaudit audits ranked-choice contests by drawing paper ballots in stages,
resampling the unseen population from a Dirichlet posterior and stopping once
one outcome wins a large enough share of the simulated elections.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.auditCommand())
	root.AddCommand(c.rankCommand())
	root.AddCommand(c.tiebreakCommand())
	root.AddCommand(c.checkpointCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Store Factory
// =============================================================================

// newStore opens the checkpoint store selected by cfg. The file backend
// falls back to the user cache directory when cfg.Dir is empty.
func newStore(cfg config.Checkpoint) (checkpoint.Store, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return checkpoint.NewNullStore(), nil
	case config.BackendRedis:
		return checkpoint.NewRedisStore(cfg.RedisURL, checkpoint.DefaultRedisPrefix)
	}
	dir := cfg.Dir
	if dir == "" {
		d, err := checkpointDir()
		if err != nil {
			return checkpoint.NewNullStore(), nil
		}
		dir = d
	}
	return checkpoint.NewFileStore(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/bayesaudit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// checkpointDir returns the default directory of the file checkpoint store.
func checkpointDir() (string, error) {
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "checkpoints"), nil
}
