package endpoints

import (
	"github.com/jackzampolin/folio/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// ThumbnailEdge is the default thumbnail size.
	ThumbnailEdge int
	// Host is advertised in the OpenAPI document.
	Host string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health
		&HealthEndpoint{},

		// Book lifecycle
		&OpenBookEndpoint{},
		&CloseBookEndpoint{},
		&GetBookEndpoint{},
		&RescanEndpoint{},

		// Navigation
		&GotoEndpoint{},
		NextEndpoint(),
		PrevEndpoint(),
		FirstEndpoint(),
		LastEndpoint(),
		&FrameEndpoint{},

		// Pages
		&PageImageEndpoint{},
		&ThumbnailEndpoint{MaxEdge: cfg.ThumbnailEdge},

		// Layout context
		&GetContextEndpoint{},
		&UpdateContextEndpoint{},

		// Stats and events
		&StatsEndpoint{},
		&ClearCacheEndpoint{},
		&EventsEndpoint{},

		// Settings
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},
		&UpdateSettingEndpoint{},

		// Swagger/OpenAPI
		&SwaggerEndpoint{Host: cfg.Host},
	}
}
