package endpoints

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// SettingsResponse lists config entries in file order.
type SettingsResponse struct {
	Settings []config.Entry `json:"settings"`
}

// SettingResponse contains a single config entry.
type SettingResponse struct {
	Entry config.Entry `json:"entry"`
}

// UpdateSettingRequest is the request body for updating a setting.
// Values travel as strings and are parsed by the config layer.
type UpdateSettingRequest struct {
	Value string `json:"value"`
}

func configManager(w http.ResponseWriter, r *http.Request) *config.Manager {
	cm := svcctx.ConfigFrom(r.Context())
	if cm == nil {
		writeError(w, http.StatusServiceUnavailable, "config manager not available")
	}
	return cm
}

// ListSettingsEndpoint handles GET /api/settings.
type ListSettingsEndpoint struct{}

var _ api.Endpoint = (*ListSettingsEndpoint)(nil)

func (e *ListSettingsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings", e.handler
}

func (e *ListSettingsEndpoint) RequiresInit() bool { return true }

func (e *ListSettingsEndpoint) Group() string { return "settings" }

// handler godoc
//
//	@Summary		List all settings
//	@Description	Get every configuration key with its effective value
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	SettingsResponse
//	@Router			/api/settings [get]
func (e *ListSettingsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	cm := configManager(w, r)
	if cm == nil {
		return
	}
	writeJSON(w, http.StatusOK, SettingsResponse{Settings: cm.Entries()})
}

func (e *ListSettingsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp SettingsResponse
			if err := api.NewClient(getServerURL()).Get(cmd.Context(), "/api/settings", &resp); err != nil {
				return err
			}
			if prefix != "" {
				filtered := resp.Settings[:0]
				for _, e := range resp.Settings {
					if strings.HasPrefix(e.Key, prefix) {
						filtered = append(filtered, e)
					}
				}
				resp.Settings = filtered
			}
			return api.Output(resp.Settings)
		},
	}
	cmd.Flags().StringVar(&prefix, "prefix", "", "Filter by key prefix (e.g., 'layout.')")
	return cmd
}

// GetSettingEndpoint handles GET /api/settings/{key...}.
type GetSettingEndpoint struct{}

var _ api.Endpoint = (*GetSettingEndpoint)(nil)

func (e *GetSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/settings/{key...}", e.handler
}

func (e *GetSettingEndpoint) RequiresInit() bool { return true }

func (e *GetSettingEndpoint) Group() string { return "settings" }

// handler godoc
//
//	@Summary		Get a setting
//	@Description	Get a single configuration setting by key
//	@Tags			settings
//	@Produce		json
//	@Param			key	path		string	true	"Setting key (URL-encoded)"
//	@Success		200	{object}	SettingResponse
//	@Failure		400	{object}	ErrorResponse
//	@Router			/api/settings/{key} [get]
func (e *GetSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}
	if err := config.ValidateKey(key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cm := configManager(w, r)
	if cm == nil {
		return
	}
	for _, entry := range cm.Entries() {
		if entry.Key == key {
			writeJSON(w, http.StatusOK, SettingResponse{Entry: entry})
			return
		}
	}
	writeError(w, http.StatusNotFound, "setting not found")
}

func (e *GetSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a setting by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp SettingResponse
			path := "/api/settings/" + url.PathEscape(args[0])
			if err := api.NewClient(getServerURL()).Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp.Entry)
		},
	}
}

// UpdateSettingEndpoint handles PUT /api/settings/{key...}.
type UpdateSettingEndpoint struct{}

var _ api.Endpoint = (*UpdateSettingEndpoint)(nil)

func (e *UpdateSettingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PUT", "/api/settings/{key...}", e.handler
}

func (e *UpdateSettingEndpoint) RequiresInit() bool { return true }

func (e *UpdateSettingEndpoint) Group() string { return "settings" }

// handler godoc
//
//	@Summary		Update a setting
//	@Description	Validates the new value, writes it to the config file and applies it
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			key		path		string					true	"Setting key (URL-encoded)"
//	@Param			body	body		UpdateSettingRequest	true	"New value"
//	@Success		200		{object}	SettingResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/settings/{key} [put]
func (e *UpdateSettingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}
	var req UpdateSettingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cm := configManager(w, r)
	if cm == nil {
		return
	}

	if err := cm.Set(key, req.Value); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, config.ErrNoConfigFile) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	for _, entry := range cm.Entries() {
		if entry.Key == key {
			writeJSON(w, http.StatusOK, SettingResponse{Entry: entry})
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "setting vanished after update")
}

func (e *UpdateSettingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Update a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp SettingResponse
			path := "/api/settings/" + url.PathEscape(args[0])
			body := UpdateSettingRequest{Value: args[1]}
			if err := api.NewClient(getServerURL()).Put(cmd.Context(), path, body, &resp); err != nil {
				return err
			}
			return api.Output(resp.Entry)
		},
	}
}
