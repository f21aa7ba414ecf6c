package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/viewkit/internal/app"
	"github.com/conneroisu/viewkit/internal/watcher"
	"github.com/conneroisu/viewkit/pkg/view"
)

// rerender handles a batch of template changes: it drops compiled
// templates and, when a view is named, renders it again.
type rerender struct {
	app     *app.App
	name    string
	model   map[string]interface{}
	opts    []view.RenderOption
	out     io.Writer
	outFile string
}

func (r *rerender) render(ctx context.Context) error {
	if r.name == "" {
		return nil
	}

	out, err := r.app.Render(ctx, r.name, r.model, r.opts...)
	if err != nil {
		return err
	}

	if r.outFile != "" {
		return os.WriteFile(r.outFile, []byte(out), 0o644)
	}
	_, err = fmt.Fprintln(r.out, out)

	return err
}

func (r *rerender) handle(ctx context.Context, events []watcher.ChangeEvent) error {
	r.app.Renderer.Invalidate()
	for _, event := range events {
		r.app.Logger.Info(ctx, "template changed", "path", event.Path, "change", event.Type.String())
	}

	return r.render(ctx)
}

func newWatchCmd() *cobra.Command {
	var (
		flags   *StandardFlags
		outFile string
	)

	cmd := &cobra.Command{
		Use:     "watch [NAME]",
		Aliases: []string{"w"},
		Short:   "Watch template directories and re-render on change",
		Long: `Watch every configured template directory. Each batch of changes clears
the compiled template cache and, when NAME is given, renders that view
again.

Examples:
  viewkit watch                                   # Report changes only
  viewkit watch page --model @model.json          # Re-render page on change
  viewkit watch page --out public/index.html      # Keep a file up to date`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.ValidateFlags(); err != nil {
				return fmt.Errorf("invalid flags: %w", err)
			}

			model, err := flags.ParseModel()
			if err != nil {
				return err
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handler := &rerender{
				app:     a,
				model:   model,
				opts:    flags.RenderOptions(),
				out:     cmd.OutOrStdout(),
				outFile: outFile,
			}
			if len(args) == 1 {
				handler.name = args[0]
			}

			fileWatcher, err := watcher.NewFileWatcher(a.Config.Watch.Debounce, a.Logger)
			if err != nil {
				return fmt.Errorf("failed to create file watcher: %w", err)
			}
			defer fileWatcher.Stop()

			fileWatcher.AddFilter(watcher.SuffixFilter(a.Loader.Suffix()))
			fileWatcher.AddFilter(watcher.NoHiddenFilter)
			fileWatcher.AddHandler(handler.handle)

			watched := 0
			for _, dir := range a.Config.Templates.Sources {
				if info, err := os.Stat(dir); err != nil || !info.IsDir() {
					a.Logger.Warn(ctx, err, "skipping template directory", "source", dir)
					continue
				}
				if err := fileWatcher.AddRecursive(dir); err != nil {
					return fmt.Errorf("failed to watch %s: %w", dir, err)
				}
				watched++
			}
			if watched == 0 {
				return fmt.Errorf("no template directory to watch")
			}

			if err := handler.render(ctx); err != nil {
				a.Logger.Error(ctx, err, "initial render failed", "template", handler.name)
			}

			if err := fileWatcher.Start(ctx); err != nil {
				return err
			}
			a.Logger.Info(ctx, "watching templates", "directories", watched, "engine", a.Provider.Name())

			<-ctx.Done()

			return nil
		},
	}

	flags = AddStandardFlags(cmd, "model", "aliases", "layout")
	cmd.Flags().StringVar(&outFile, "out", "", "write each render to a file instead of stdout")

	return cmd
}
