package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/content"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// EventsEndpoint handles GET /api/events.
type EventsEndpoint struct {
	// Heartbeat is the interval between keep-alive comments. Zero means 15s.
	Heartbeat time.Duration
}

var _ api.Endpoint = (*EventsEndpoint)(nil)

func (e *EventsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/events", e.handler
}

func (e *EventsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Stream loader events
//	@Description	Server-sent events: page_loaded, page_unloaded, memory_pressure and book_reloaded
//	@Tags			events
//	@Produce		text/event-stream
//	@Param			types	query	string	false	"Comma separated event types to keep"
//	@Success		200
//	@Router			/api/events [get]
func (e *EventsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	m := manager(w, r)
	if m == nil {
		return
	}
	filter := map[content.EventType]bool{}
	if s := r.URL.Query().Get("types"); s != "" {
		for _, t := range strings.Split(s, ",") {
			filter[content.EventType(strings.TrimSpace(t))] = true
		}
	}

	rc := http.NewResponseController(w)
	// the stream outlives the server's write timeout
	rc.SetWriteDeadline(time.Time{})

	events, unsubscribe := m.Subscribe(256)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	rc.Flush()

	heartbeat := e.Heartbeat
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	logger := svcctx.LoggerFrom(r.Context())
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			rc.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			if len(filter) > 0 && !filter[ev.Type] {
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				logger.Warn("failed to encode event", "type", ev.Type, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
				return
			}
			rc.Flush()
		}
	}
}

func (e *EventsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var types string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow loader events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/events"
			if types != "" {
				path += "?types=" + types
			}
			return api.NewClient(getServerURL()).Stream(cmd.Context(), path, func(event string, data []byte) error {
				var ev content.Event
				if err := json.Unmarshal(data, &ev); err != nil {
					fmt.Fprintf(os.Stderr, "skipping malformed %s event: %v\n", event, err)
					return nil
				}
				return api.Output(ev)
			})
		},
	}
	cmd.Flags().StringVar(&types, "types", "", "Comma separated event types (e.g. page_loaded,memory_pressure)")
	return cmd
}
