package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/content"
)

// StatsEndpoint handles GET /api/stats.
type StatsEndpoint struct{}

var _ api.Endpoint = (*StatsEndpoint)(nil)

func (e *StatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/stats", e.handler
}

func (e *StatsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Loader statistics
//	@Description	Memory pool usage, job queue state, cached and preloading pages
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	content.Stats
//	@Router			/api/stats [get]
func (e *StatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	writeJSON(w, http.StatusOK, m.Stats())
}

func (e *StatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache and job statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats content.Stats
			if err := api.NewClient(getServerURL()).Get(cmd.Context(), "/api/stats", &stats); err != nil {
				return err
			}
			return api.Output(stats)
		},
	}
}

// ClearCacheEndpoint handles POST /api/cache/clear.
type ClearCacheEndpoint struct{}

var _ api.Endpoint = (*ClearCacheEndpoint)(nil)

func (e *ClearCacheEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/cache/clear", e.handler
}

func (e *ClearCacheEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Clear the page cache
//	@Description	Drops every cached page, including pages on screen
//	@Tags			stats
//	@Success		204
//	@Router			/api/cache/clear [post]
func (e *ClearCacheEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	m.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

func (e *ClearCacheEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop every cached page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return api.NewClient(getServerURL()).Post(cmd.Context(), "/api/cache/clear", nil, nil)
		},
	}
}
