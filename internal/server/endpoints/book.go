package endpoints

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/content"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// OpenBookRequest is the body of POST /api/book/open.
type OpenBookRequest struct {
	// Path is the book to open. Empty with Resume reopens the last book.
	Path string `json:"path,omitempty"`
	// Resume restores the saved position and layout when they belong to Path.
	Resume bool `json:"resume,omitempty"`
}

// OpenBookResponse is the opened book and the frame now showing.
type OpenBookResponse struct {
	Book  content.BookInfo  `json:"book"`
	Frame content.FrameInfo `json:"frame"`
}

// OpenBookEndpoint handles POST /api/book/open.
type OpenBookEndpoint struct{}

var _ api.Endpoint = (*OpenBookEndpoint)(nil)

func (e *OpenBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/book/open", e.handler
}

func (e *OpenBookEndpoint) RequiresInit() bool { return true }

func (e *OpenBookEndpoint) Group() string { return "book" }

// handler godoc
//
//	@Summary		Open a book
//	@Description	Opens a directory, zip/cbz archive, PDF or single image and shows its first frame
//	@Tags			book
//	@Accept			json
//	@Produce		json
//	@Param			request	body		OpenBookRequest	true	"Book to open"
//	@Success		200		{object}	OpenBookResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/book/open [post]
func (e *OpenBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	var req OpenBookRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var saved *content.State
	if store := m.StateStore(); req.Resume && store != nil {
		st, err := store.Load()
		switch {
		case err == nil && (req.Path == "" || req.Path == st.Path):
			saved = &st
		case err != nil && !errors.Is(err, content.ErrNoState):
			svcctx.LoggerFrom(r.Context()).Warn("ignoring saved state", "error", err)
		}
	}
	if saved == nil && req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	var (
		frame content.FrameInfo
		err   error
	)
	if saved != nil {
		frame, err = m.Restore(r.Context(), *saved)
	} else if _, err = m.OpenBook(r.Context(), req.Path); err == nil {
		frame, err = m.FirstFrame()
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	info, err := m.BookInfo()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, OpenBookResponse{Book: info, Frame: frame})
}

func (e *OpenBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	var resume bool
	cmd := &cobra.Command{
		Use:   "open [path]",
		Short: "Open a book on the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := OpenBookRequest{Resume: resume}
			if len(args) == 1 {
				// the server may run elsewhere in the tree
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				req.Path = abs
			}
			var resp OpenBookResponse
			if err := api.NewClient(getServerURL()).Post(cmd.Context(), "/api/book/open", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().BoolVar(&resume, "resume", false, "Return to the saved position")
	return cmd
}

// CloseBookEndpoint handles POST /api/book/close.
type CloseBookEndpoint struct{}

var _ api.Endpoint = (*CloseBookEndpoint)(nil)

func (e *CloseBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/book/close", e.handler
}

func (e *CloseBookEndpoint) RequiresInit() bool { return true }

func (e *CloseBookEndpoint) Group() string { return "book" }

// handler godoc
//
//	@Summary		Close the book
//	@Description	Cancels the book's loads, drops its cache and saves the reading position
//	@Tags			book
//	@Success		204
//	@Router			/api/book/close [post]
func (e *CloseBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	m.CloseBook()
	w.WriteHeader(http.StatusNoContent)
}

func (e *CloseBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Close the open book",
		RunE: func(cmd *cobra.Command, args []string) error {
			return api.NewClient(getServerURL()).Post(cmd.Context(), "/api/book/close", nil, nil)
		},
	}
}

// GetBookEndpoint handles GET /api/book.
type GetBookEndpoint struct{}

var _ api.Endpoint = (*GetBookEndpoint)(nil)

func (e *GetBookEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/book", e.handler
}

func (e *GetBookEndpoint) RequiresInit() bool { return true }

func (e *GetBookEndpoint) Group() string { return "book" }

// handler godoc
//
//	@Summary		Describe the open book
//	@Tags			book
//	@Produce		json
//	@Success		200	{object}	content.BookInfo
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/book [get]
func (e *GetBookEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	info, err := m.BookInfo()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (e *GetBookEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the open book",
		RunE: func(cmd *cobra.Command, args []string) error {
			var info content.BookInfo
			if err := api.NewClient(getServerURL()).Get(cmd.Context(), "/api/book", &info); err != nil {
				return err
			}
			return api.Output(info)
		},
	}
}

// RescanEndpoint handles POST /api/book/rescan.
type RescanEndpoint struct{}

var _ api.Endpoint = (*RescanEndpoint)(nil)

func (e *RescanEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/book/rescan", e.handler
}

func (e *RescanEndpoint) RequiresInit() bool { return true }

func (e *RescanEndpoint) Group() string { return "book" }

// RescanResponse identifies the queued scan.
type RescanResponse struct {
	JobID string `json:"job_id"`
}

// handler godoc
//
//	@Summary		Re-list the book's pages
//	@Description	Queues a background scan; a book_reloaded event follows when pages changed
//	@Tags			book
//	@Produce		json
//	@Success		202	{object}	RescanResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/book/rescan [post]
func (e *RescanEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	h, err := m.Rescan()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, RescanResponse{JobID: h.ID()})
}

func (e *RescanEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "Re-list the open book's pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp RescanResponse
			if err := api.NewClient(getServerURL()).Post(cmd.Context(), "/api/book/rescan", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
