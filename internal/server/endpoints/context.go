package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/content"
	"github.com/jackzampolin/folio/internal/frame"
)

// ContextResponse is the layout context plus the frame it produced.
// Frame is nil when no book is open.
type ContextResponse struct {
	Context frame.Context      `json:"context"`
	Frame   *content.FrameInfo `json:"frame,omitempty"`
}

// GetContextEndpoint handles GET /api/context.
type GetContextEndpoint struct{}

var _ api.Endpoint = (*GetContextEndpoint)(nil)

func (e *GetContextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/context", e.handler
}

func (e *GetContextEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get the layout context
//	@Tags			context
//	@Produce		json
//	@Success		200	{object}	frame.Context
//	@Router			/api/context [get]
func (e *GetContextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	writeJSON(w, http.StatusOK, m.Context())
}

// Command is nil: "context" is served by the PATCH endpoint's command,
// which reads the context when no flag is set.
func (e *GetContextEndpoint) Command(getServerURL func() string) *cobra.Command {
	return nil
}

// UpdateContextEndpoint handles PATCH /api/context.
type UpdateContextEndpoint struct{}

var _ api.Endpoint = (*UpdateContextEndpoint)(nil)

func (e *UpdateContextEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/context", e.handler
}

func (e *UpdateContextEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Update the layout context
//	@Description	Merges the given fields into the context and rebuilds the frame; the page on screen stays on screen
//	@Tags			context
//	@Accept			json
//	@Produce		json
//	@Param			request	body		frame.ContextPatch	true	"Fields to change"
//	@Success		200		{object}	ContextResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/api/context [patch]
func (e *UpdateContextEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	var patch frame.ContextPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := patch.Apply(m.Context()).Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := m.UpdateContext(patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	resp := ContextResponse{Context: m.Context()}
	if len(info.Elements) > 0 {
		resp.Frame = &info
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *UpdateContextEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		mode, order, stretch, wideStretch, rotate string
		divide, wide, first, last                 bool
		rate                                      float64
	)
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show or change the layout context",
		Long: `Show or change the layout context.

Without flags the current context is printed. Any flag given is sent as a
partial update; fields not named are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			patch := map[string]any{}
			flags := cmd.Flags()
			set := func(flag, field string, v any) {
				if flags.Changed(flag) {
					patch[field] = v
				}
			}
			set("mode", "page_mode", mode)
			set("order", "read_order", order)
			set("divide", "divide_page", divide)
			set("wide", "wide_page", wide)
			set("single-first", "single_first", first)
			set("single-last", "single_last", last)
			set("divide-rate", "divide_page_rate", rate)
			set("rotate", "auto_rotate", rotate)
			set("stretch", "stretch_mode", stretch)
			set("wide-stretch", "wide_page_stretch", wideStretch)

			if len(patch) == 0 {
				var ctx frame.Context
				if err := client.Get(cmd.Context(), "/api/context", &ctx); err != nil {
					return err
				}
				return api.Output(ctx)
			}
			var resp ContextResponse
			if err := client.Patch(cmd.Context(), "/api/context", patch, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "Page mode: single or double")
	cmd.Flags().StringVar(&order, "order", "", "Read order: ltr or rtl")
	cmd.Flags().BoolVar(&divide, "divide", false, "Split wide pages into halves (single mode)")
	cmd.Flags().BoolVar(&wide, "wide", false, "Show wide pages alone (double mode)")
	cmd.Flags().BoolVar(&first, "single-first", false, "Show the first page alone")
	cmd.Flags().BoolVar(&last, "single-last", false, "Show the last page alone")
	cmd.Flags().Float64Var(&rate, "divide-rate", 0, "Aspect ratio above which a page is wide")
	cmd.Flags().StringVar(&rotate, "rotate", "", "Auto rotate: none, left, right or auto")
	cmd.Flags().StringVar(&stretch, "stretch", "", "Stretch mode")
	cmd.Flags().StringVar(&wideStretch, "wide-stretch", "", "Wide page stretch")
	return cmd
}
