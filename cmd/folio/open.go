package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/content"
	"github.com/jackzampolin/folio/internal/server"
)

var (
	openResume bool
	openWait   bool
	openIndex  int
)

// openResult is what "folio open" prints.
type openResult struct {
	Book  content.BookInfo   `json:"book" yaml:"book"`
	Frame content.FrameInfo  `json:"frame" yaml:"frame"`
	Pages []content.PageData `json:"pages,omitempty" yaml:"pages,omitempty"`
}

var openCmd = &cobra.Command{
	Use:   "open [path]",
	Short: "Open a book locally and print its first frame",
	Long: `Open a book without a server and print the book and the frame that
would be shown.

With --resume the saved reading position is restored; the path may then
be omitted to reopen the last book. The position is saved again on exit.

Examples:
  folio open ~/comics/issue1.cbz
  folio open ~/comics/issue1.cbz --page 12 --wait
  folio open --resume`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		h, cm, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cm.Get())
		if err != nil {
			return err
		}

		var path string
		if len(args) == 1 {
			if path, err = filepath.Abs(args[0]); err != nil {
				return err
			}
		}

		rt, err := server.NewRuntime(cm.Get(), h, logger)
		if err != nil {
			return err
		}
		rt.Engine.Start(ctx)
		defer func() {
			rt.Content.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			rt.Engine.Shutdown(shutdownCtx)
		}()

		frame, err := openLocal(ctx, rt, path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("page") {
			if frame, err = rt.Content.GotoIndex(openIndex); err != nil {
				return err
			}
		}

		res := openResult{Frame: frame}
		if res.Book, err = rt.Content.BookInfo(); err != nil {
			return err
		}
		if openWait {
			fd, err := rt.Content.LoadFrame(ctx)
			if err != nil {
				return err
			}
			res.Pages = fd.Pages
		}
		return api.Output(res)
	},
}

func openLocal(ctx context.Context, rt *server.Runtime, path string) (content.FrameInfo, error) {
	if openResume && rt.State != nil {
		st, err := rt.State.Load()
		switch {
		case err == nil && (path == "" || path == st.Path):
			return rt.Content.Restore(ctx, st)
		case err != nil && !errors.Is(err, content.ErrNoState):
			return content.FrameInfo{}, fmt.Errorf("saved state: %w", err)
		}
	}
	if path == "" {
		return content.FrameInfo{}, errors.New("a path is required unless --resume finds a saved book")
	}
	if _, err := rt.Content.OpenBook(ctx, path); err != nil {
		return content.FrameInfo{}, err
	}
	return rt.Content.FirstFrame()
}

func init() {
	openCmd.Flags().BoolVar(&openResume, "resume", false, "Restore the saved reading position")
	openCmd.Flags().BoolVar(&openWait, "wait", false, "Load the frame's pages and report them")
	openCmd.Flags().IntVar(&openIndex, "page", 0, "Show the frame containing this page index")

	rootCmd.AddCommand(openCmd)
}
