// Package cli provides the command-line interface for seedbloom.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/seedbloom/internal/config"
	"github.com/raphaelgruber/seedbloom/internal/resonance"
)

// annotationPersist marks commands whose changes are saved to the snapshot.
const annotationPersist = "persist"

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose      bool
	configPath   string
	snapshotPath string

	// Global config and memory
	cfg       config.Config
	mem       *resonance.Memory
	logger    *slog.Logger
	closeLogs func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "seedbloom",
	Short: "Compressed associative memory",
	Long: `Seedbloom stores content as small fixed-length seed vectors, recalls
seeds by resonance with a query, and blooms a seed into the neighbourhood
of related seeds.

Seeds live in a snapshot file between runs. Recalled and bloomed seeds gain
weight; tick decays every weight, and the weakest seed is evicted when the
memory is full.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip memory setup for version, help and completion commands
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		return openMemory(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer closeMemory()

		if mem == nil || cmd.Annotations[annotationPersist] != "true" {
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SnapshotPath), 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
		if err := mem.Save(cfg.SnapshotPath); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	},
}

// openMemory loads config, sets up logging and restores the snapshot.
func openMemory(cmd *cobra.Command) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Load()
	}
	if snapshotPath != "" {
		cfg.SnapshotPath = snapshotPath
	}
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	logger, closeLogs = config.SetupLogger(cfg.LogFile, cfg.LogLevel)

	mem, err = resonance.New(cfg.Memory, resonance.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create memory: %w", err)
	}

	err = mem.Load(cfg.SnapshotPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("no snapshot yet", "path", cfg.SnapshotPath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	return nil
}

func closeMemory() {
	if mem != nil {
		mem.Close()
		mem = nil
	}
	if closeLogs != nil {
		if err := closeLogs(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
		closeLogs = nil
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	// PersistentPostRun is skipped when RunE fails
	closeMemory()
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&snapshotPath, "snapshot", "s", "", "snapshot file (default $SEEDBLOOM_SNAPSHOT or ~/.seedbloom/seeds.jsonl)")

	// Add subcommands
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(bloomCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(serveCmd)
}

// persisting marks cmd so its changes are written back to the snapshot.
func persisting(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationPersist] = "true"
	return cmd
}

// resolveID accepts a full seed id or a unique prefix of one.
func resolveID(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty seed id", resonance.ErrInvalidArgument)
	}
	if _, err := mem.Get(ref); err == nil {
		return ref, nil
	}
	var match string
	for _, s := range mem.Seeds() {
		if !strings.HasPrefix(s.ID, ref) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("seed prefix %q is ambiguous", ref)
		}
		match = s.ID
	}
	if match == "" {
		return "", fmt.Errorf("seed %q: %w", ref, resonance.ErrNotFound)
	}
	return match, nil
}
