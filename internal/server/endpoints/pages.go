package endpoints

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/pageerr"
)

// PageImageEndpoint handles GET /api/pages/{index}/image.
type PageImageEndpoint struct{}

var _ api.Endpoint = (*PageImageEndpoint)(nil)

func (e *PageImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pages/{index}/image", e.handler
}

func (e *PageImageEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get page bytes
//	@Description	Returns the page's image bytes. A load superseded by newer navigation answers 204.
//	@Tags			pages
//	@Produce		image/jpeg,image/png,image/gif,image/webp
//	@Param			index	path	int	true	"Physical page index"
//	@Success		200
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Failure		504	{object}	ErrorResponse
//	@Router			/api/pages/{index}/image [get]
func (e *PageImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	d, err := m.GetPageData(r.Context(), index)
	if err != nil {
		if pageerr.IsCancelled(err) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", d.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.Header().Set("X-Cache", cacheHeader(d.CacheHit))
	w.WriteHeader(http.StatusOK)
	w.Write(d.Data)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

func (e *PageImageEndpoint) Command(getServerURL func() string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "page <index>",
		Short: "Download a page's image bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be an integer: %w", err)
			}
			data, contentType, err := api.NewClient(getServerURL()).GetBytes(cmd.Context(), "/api/pages/"+args[0]+"/image")
			if err != nil {
				return err
			}
			if out == "" {
				if len(data) == 0 {
					return fmt.Errorf("page %d load was superseded", index)
				}
				return api.Output(map[string]any{"index": index, "mime_type": contentType, "size": len(data)})
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the image to this file")
	return cmd
}

// ThumbnailEndpoint handles GET /api/pages/{index}/thumbnail.
type ThumbnailEndpoint struct {
	// MaxEdge is used when the request has no edge parameter.
	MaxEdge int
}

var _ api.Endpoint = (*ThumbnailEndpoint)(nil)

func (e *ThumbnailEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/pages/{index}/thumbnail", e.handler
}

func (e *ThumbnailEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get a page thumbnail
//	@Description	Returns a JPEG no larger than edge pixels on its longer side
//	@Tags			pages
//	@Produce		image/jpeg
//	@Param			index	path	int	true	"Physical page index"
//	@Param			edge	query	int	false	"Longest edge in pixels"
//	@Success		200
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/api/pages/{index}/thumbnail [get]
func (e *ThumbnailEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	edge := e.MaxEdge
	if s := r.URL.Query().Get("edge"); s != "" {
		if edge, err = strconv.Atoi(s); err != nil || edge <= 0 {
			writeError(w, http.StatusBadRequest, "edge must be a positive integer")
			return
		}
	}

	data, err := m.Thumbnail(r.Context(), index, edge)
	if err != nil {
		if pageerr.IsCancelled(err) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (e *ThumbnailEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		out  string
		edge int
	)
	cmd := &cobra.Command{
		Use:   "thumbnail <index>",
		Short: "Download a page thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("index must be an integer: %w", err)
			}
			path := "/api/pages/" + args[0] + "/thumbnail"
			if edge > 0 {
				path += "?edge=" + strconv.Itoa(edge)
			}
			data, _, err := api.NewClient(getServerURL()).GetBytes(cmd.Context(), path)
			if err != nil {
				return err
			}
			if out == "" {
				out = "thumb-" + args[0] + ".jpg"
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default thumb-<index>.jpg)")
	cmd.Flags().IntVar(&edge, "edge", 0, "Longest edge in pixels")
	return cmd
}
