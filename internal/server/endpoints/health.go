package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/content"
	"github.com/jackzampolin/folio/internal/pageerr"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
	Book   string `json:"book,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

var _ api.Endpoint = (*HealthEndpoint)(nil)

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Health check
//	@Description	Reports whether the server is up and which book is open
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if m := svcctx.ContentFrom(r.Context()); m != nil {
		if info, err := m.BookInfo(); err == nil {
			resp.Book = info.Path
		}
	} else {
		resp.Status = "starting"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			if resp.Book != "" {
				fmt.Printf("Book:   %s\n", resp.Book)
			}
			return nil
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse = api.ErrorResponse

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeServiceError maps a manager error to a status and a stable code.
func writeServiceError(w http.ResponseWriter, err error) {
	info := pageerr.ToInfo(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, content.ErrNoBook):
		status, info.Code = http.StatusConflict, "NO_BOOK"
	case errors.Is(err, content.ErrEndOfBook):
		status, info.Code = http.StatusConflict, "END_OF_BOOK"
	case errors.Is(err, pageerr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pageerr.ErrArchive), errors.Is(err, pageerr.ErrDecode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, pageerr.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, pageerr.ErrMemoryPressure):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ErrorResponse{Error: info.Message, Code: info.Code, Retryable: info.Retryable})
}

// manager returns the content manager or writes a 503.
func manager(w http.ResponseWriter, r *http.Request) *content.Manager {
	m := svcctx.ContentFrom(r.Context())
	if m == nil {
		writeError(w, http.StatusServiceUnavailable, "content manager not initialized")
	}
	return m
}

// decodeBody decodes an optional JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("invalid request body: %w", err)
}
