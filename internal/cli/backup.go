package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/modclash/internal/platform"
	"github.com/sdejongh/modclash/pkg/backup"
	"github.com/sdejongh/modclash/pkg/config"
	"github.com/sdejongh/modclash/pkg/output"
	"github.com/sdejongh/modclash/pkg/ratelimit"
)

// BackupFlags holds backup command flags
type BackupFlags struct {
	Root      string
	Overwrite bool
	Yes       bool
	Bandwidth string
}

var backupFlags BackupFlags

// NewBackupCommand creates the backup command
func NewBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive and restore the mods directory",
		Long: `Create zip archives of the LML mods directory, list them, and restore one.
Archives are kept in a directory next to the mods root (backup.dir).`,
	}

	cmd.PersistentFlags().StringVarP(&backupFlags.Root, "root", "r", "", "LML mods directory (default: scan.root from config)")
	cmd.PersistentFlags().StringVarP(&backupFlags.Bandwidth, "bandwidth", "b", "", "limit archive reads (e.g. \"10M\", \"1G\")")

	cmd.AddCommand(newBackupCreateCommand())
	cmd.AddCommand(newBackupListCommand())
	cmd.AddCommand(newBackupRestoreCommand())

	return cmd
}

func newBackupCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Archive the mods directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cfg, root, err := backupSetup()
			if err != nil {
				return err
			}
			logger, err := createLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Close()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			progress := output.NewProgress(os.Stderr, "Archiving", 0, cfg.Output.Progress)
			info, err := backup.Create(ctx, root, name, backup.Options{
				Dir:       cfg.Backup.Dir,
				Overwrite: backupFlags.Overwrite,
				Logger:    logger,
				Limiter:   limiter(cfg),
				OnFile: func(p backup.Progress) {
					progress.SetTotal(p.Total)
					progress.Increment(p.Path)
				},
			})
			progress.Finish()
			if err != nil {
				return err
			}

			if !cfg.Output.Quiet {
				fmt.Printf("Backup created: %s (%d files, %s)\n", info.Path, info.FileCount, output.FormatBytes(info.Size))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&backupFlags.Overwrite, "overwrite", false, "replace an archive with the same name")
	return cmd
}

func newBackupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archives, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := backupSetup()
			if err != nil {
				return err
			}

			dir := backup.ArchiveDir(root, cfg.Backup.Dir)
			infos, err := backup.List(dir)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Printf("No backups in %s\n", dir)
				return nil
			}

			for _, info := range infos {
				files := "?"
				if info.FileCount > 0 {
					files = fmt.Sprint(info.FileCount)
				}
				fmt.Printf("%-40s %s  %6s files  %10s\n",
					info.Name, info.Created.Format("2006-01-02 15:04:05"), files, output.FormatBytes(info.Size))
			}
			return nil
		},
	}
}

func newBackupRestoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <name|archive>",
		Short: "Replace the mods directory with an archive's contents",
		Long: `Restore an archive into the mods directory. Everything currently in the
directory is removed first. The cached scan of the directory is dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cfg, root, err := backupSetup()
			if err != nil {
				return err
			}
			logger, err := createLogger(cfg)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Close()

			archive := resolveArchive(root, cfg, args[0])
			if _, err := os.Stat(archive); err != nil {
				return fmt.Errorf("backup not found: %s", archive)
			}

			if !backupFlags.Yes && !confirm(fmt.Sprintf("Replace everything in %s with %s?", root, filepath.Base(archive))) {
				fmt.Println("Restore aborted")
				return nil
			}

			progress := output.NewProgress(os.Stderr, "Restoring", 0, cfg.Output.Progress)
			n, err := backup.Restore(ctx, archive, root, backup.Options{
				Logger:  logger,
				Limiter: limiter(cfg),
				OnFile: func(p backup.Progress) {
					progress.SetTotal(p.Total)
					progress.Increment(p.Path)
				},
			})
			progress.Finish()
			if err != nil {
				return err
			}

			engine, cleanup, err := newEngine(ctx, cfg, logger, true)
			if err == nil {
				engine.Invalidate(ctx, root)
				cleanup()
			}

			if !cfg.Output.Quiet {
				fmt.Printf("Restored %d files into %s\n", n, root)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&backupFlags.Yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// backupSetup loads the config and validates the mods root
func backupSetup() (*config.Config, string, error) {
	cfg, err := setup()
	if err != nil {
		return nil, "", err
	}
	if backupFlags.Bandwidth != "" {
		cfg.Backup.Bandwidth = backupFlags.Bandwidth
		if err := cfg.Validate(); err != nil {
			return nil, "", err
		}
	}
	root, err := resolveRoot(backupFlags.Root, cfg)
	if err != nil {
		return nil, "", err
	}
	if err := platform.ValidateRoot(root); err != nil {
		return nil, "", err
	}
	return cfg, platform.NormalizePath(root), nil
}

// limiter builds the shared limiter of one archive operation.
// The rate was validated with the config.
func limiter(cfg *config.Config) *ratelimit.Limiter {
	rate, _ := ratelimit.ParseRate(cfg.Backup.Bandwidth)
	return ratelimit.NewLimiter(rate)
}

// resolveArchive accepts an archive path or a backup name
func resolveArchive(root string, cfg *config.Config, arg string) string {
	if strings.EqualFold(filepath.Ext(arg), ".zip") {
		if _, err := os.Stat(arg); err == nil {
			return arg
		}
	}
	name := strings.TrimSuffix(arg, filepath.Ext(arg))
	if !strings.EqualFold(filepath.Ext(arg), ".zip") {
		name = arg
	}
	return filepath.Join(backup.ArchiveDir(root, cfg.Backup.Dir), backup.SanitizeName(name)+".zip")
}

// confirm asks a yes/no question on stdin
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
