package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fabricaapp/fabrica-server/internal/backup"
	"github.com/fabricaapp/fabrica-server/internal/config"
	"github.com/fabricaapp/fabrica-server/internal/domain"
	"github.com/fabricaapp/fabrica-server/internal/logger"
	"github.com/fabricaapp/fabrica-server/internal/service"
	"github.com/fabricaapp/fabrica-server/internal/store"
)

// app is what every subcommand works against. The store is opened in the
// root command's PersistentPreRunE and closed by execute.
type app struct {
	dataPath string
	verbose  bool

	store   *store.Store
	library *service.LibraryService
	logger  *slog.Logger
}

// execute runs the command line in args and closes the store afterwards,
// including when the command failed.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "fabricactl",
		Short: "Inspect, export and import a Fabrica library",
		Long: `fabricactl works directly on the data directory of a Fabrica server.

The store allows a single process at a time, so stop the server first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return a.open(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.dataPath, "data", "", "Data directory (default: ~/Fabrica)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log store activity to stderr")

	root.AddCommand(
		newExportCmd(a),
		newImportCmd(a),
		newArchiveCmd(a),
		newBackupCmd(a),
		newInspectCmd(a),
		newArtisansCmd(a),
	)
	return root, a
}

func (a *app) open(logOut io.Writer) error {
	path := a.dataPath
	if path == "" {
		def, err := config.DefaultDataPath()
		if err != nil {
			return err
		}
		path = def
	}
	path, err := config.ExpandPath(path, "")
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	data := config.DataConfig{Path: path}

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = logger.New(logger.Config{Writer: logOut, Level: level}).Logger

	st, err := store.Open(data.StorePath(), a.logger, store.NewNoopEmitter())
	if err != nil {
		return fmt.Errorf("open store at %s: %w", data.StorePath(), err)
	}
	a.store = st
	a.library = service.NewLibraryService(st, backup.NewManager(data.BackupPath(), a.logger), a.logger)
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the library as an import/export JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			export, err := a.library.ExportLibrary(cmd.Context())
			if err != nil {
				return err
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(export.Data)
				return err
			}
			if out == "" {
				out = export.FileName
			}
			if err := os.WriteFile(out, export.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported library to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", `Output file, "-" for stdout (default: dated file name)`)
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the whole library with an exported document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			lib, err := a.library.ImportLibrary(cmd.Context(), data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d books, %d artisans, %d collections\n",
				len(lib.Books), len(lib.Artisans), len(lib.Collections))
			return nil
		},
	}
}

func newArchiveCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "archive <bookID> <chapterID>",
		Short: "Write a chapter's texts as a zip archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := a.library.ArchiveChapter(cmd.Context(), domain.NewID(args[0]), domain.NewID(args[1]))
			if err != nil {
				return err
			}
			path := filepath.Join(dir, archive.FileName)
			if err := os.WriteFile(path, archive.Data, 0o644); err != nil {
				return fmt.Errorf("write archive: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory the archive is written to")
	return cmd
}

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.library.CreateBackup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created backup %s (%d bytes)\n", info.Name, info.Size)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backups, err := a.library.ListBackups(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tCREATED")
			for _, b := range backups {
				fmt.Fprintf(w, "%s\t%d\t%s\n", b.Name, b.Size, b.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	})
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of the stored library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.inspect(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) inspect(ctx context.Context, out io.Writer) error {
	lib, err := a.store.Library(ctx)
	if err != nil {
		return err
	}
	settings, err := a.store.Settings(ctx)
	if err != nil {
		return err
	}

	chapters, completed, entries := 0, 0, 0
	for _, b := range lib.Books {
		chapters += len(b.Chapters)
		for _, ch := range b.Chapters {
			if ch.Completed {
				completed++
			}
			entries += len(ch.Content)
		}
	}

	fmt.Fprintln(out, "=== Library ===")
	fmt.Fprintf(out, "Books:       %d\n", len(lib.Books))
	fmt.Fprintf(out, "Chapters:    %d (%d completed)\n", chapters, completed)
	fmt.Fprintf(out, "Entries:     %d\n", entries)
	fmt.Fprintf(out, "Artisans:    %d\n", len(lib.Artisans))
	fmt.Fprintf(out, "Collections: %d\n", len(lib.Collections))
	fmt.Fprintf(out, "API key:     %s\n", yesNo(settings.APIKey != ""))
	fmt.Fprintf(out, "Dark mode:   %s\n", yesNo(settings.DarkMode))

	if len(lib.Books) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCHAPTERS\tPROGRESS")
	for _, b := range lib.Books {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0f%%\n", b.ID, b.Title, len(b.Chapters), b.Progress())
	}
	return w.Flush()
}

func newArtisansCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "artisans",
		Short: "List the configured artisans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			artisans, err := a.store.Artisans.All(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, art := range artisans {
				fmt.Fprintf(w, "%s\t%s\n", art.ID, art.Name)
			}
			return w.Flush()
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
