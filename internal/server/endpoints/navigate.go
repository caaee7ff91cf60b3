package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/content"
	"github.com/jackzampolin/folio/internal/frame"
)

// GotoRequest is the body of POST /api/goto.
type GotoRequest struct {
	Index int `json:"index"`
	// Part selects the half of a split page; it is ignored otherwise.
	Part int `json:"part,omitempty"`
	// Snap resolves Index to the frame containing it instead of
	// starting a frame there.
	Snap bool `json:"snap,omitempty"`
}

// GotoEndpoint handles POST /api/goto.
type GotoEndpoint struct{}

var _ api.Endpoint = (*GotoEndpoint)(nil)

func (e *GotoEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/goto", e.handler
}

func (e *GotoEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Go to a page
//	@Description	Shows the frame at the given position and refreshes the preload window
//	@Tags			navigation
//	@Accept			json
//	@Produce		json
//	@Param			request	body		GotoRequest	true	"Target position"
//	@Success		200		{object}	content.FrameInfo
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/goto [post]
func (e *GotoEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	var req GotoRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Part < 0 || req.Part > 1 {
		writeError(w, http.StatusBadRequest, "part must be 0 or 1")
		return
	}

	var (
		info content.FrameInfo
		err  error
	)
	if req.Snap {
		info, err = m.GotoIndex(req.Index)
	} else {
		info, err = m.GotoPosition(frame.Position{Index: req.Index, Part: req.Part})
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (e *GotoEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		part int
		snap bool
	)
	cmd := &cobra.Command{
		Use:   "goto <index>",
		Short: "Show the frame at a page index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			var info content.FrameInfo
			req := GotoRequest{Index: index, Part: part, Snap: snap}
			if err := api.NewClient(getServerURL()).Post(cmd.Context(), "/api/goto", req, &info); err != nil {
				return err
			}
			return api.Output(info)
		},
	}
	cmd.Flags().IntVar(&part, "part", 0, "Half of a split page (0 or 1)")
	cmd.Flags().BoolVar(&snap, "snap", false, "Show the frame containing the page")
	return cmd
}

// StepEndpoint moves one frame or to either end of the book.
type StepEndpoint struct {
	Name  string
	Short string
	step  func(*content.Manager) (content.FrameInfo, error)
}

var _ api.Endpoint = (*StepEndpoint)(nil)

// NextEndpoint handles POST /api/next.
func NextEndpoint() *StepEndpoint {
	return &StepEndpoint{Name: "next", Short: "Advance one frame", step: (*content.Manager).NextFrame}
}

// PrevEndpoint handles POST /api/prev.
func PrevEndpoint() *StepEndpoint {
	return &StepEndpoint{Name: "prev", Short: "Go back one frame", step: (*content.Manager).PrevFrame}
}

// FirstEndpoint handles POST /api/first.
func FirstEndpoint() *StepEndpoint {
	return &StepEndpoint{Name: "first", Short: "Jump to the first frame", step: (*content.Manager).FirstFrame}
}

// LastEndpoint handles POST /api/last.
func LastEndpoint() *StepEndpoint {
	return &StepEndpoint{Name: "last", Short: "Jump to the last frame", step: (*content.Manager).LastFrame}
}

func (e *StepEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/" + e.Name, e.handler
}

func (e *StepEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Step through the book
//	@Description	next and prev move one frame; first and last jump to either end
//	@Tags			navigation
//	@Produce		json
//	@Success		200	{object}	content.FrameInfo
//	@Failure		409	{object}	ErrorResponse
//	@Router			/api/next [post]
//	@Router			/api/prev [post]
//	@Router			/api/first [post]
//	@Router			/api/last [post]
func (e *StepEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	info, err := e.step(m)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (e *StepEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   e.Name,
		Short: e.Short,
		RunE: func(cmd *cobra.Command, args []string) error {
			var info content.FrameInfo
			if err := api.NewClient(getServerURL()).Post(cmd.Context(), "/api/"+e.Name, nil, &info); err != nil {
				return err
			}
			return api.Output(info)
		},
	}
}

// FrameEndpoint handles GET /api/frame.
type FrameEndpoint struct{}

var _ api.Endpoint = (*FrameEndpoint)(nil)

func (e *FrameEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/frame", e.handler
}

func (e *FrameEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Describe the current frame
//	@Description	With wait=true the response holds once every page of the frame is cached
//	@Tags			navigation
//	@Produce		json
//	@Param			wait	query		bool	false	"Wait for the frame's pages"
//	@Success		200		{object}	content.FrameData
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/frame [get]
func (e *FrameEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		fd, err := m.LoadFrame(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fd)
		return
	}
	info, err := m.CurrentFrame()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content.FrameData{Frame: info})
}

func (e *FrameEndpoint) Command(getServerURL func() string) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Describe the current frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/frame"
			if wait {
				path += "?wait=true"
			}
			var fd content.FrameData
			if err := api.NewClient(getServerURL()).Get(cmd.Context(), path, &fd); err != nil {
				return err
			}
			return api.Output(fd)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait until the frame's pages are loaded")
	return cmd
}
