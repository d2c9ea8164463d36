package endpoint

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/voicekit/config"
	"github.com/skillsenselab/voicekit/transcription"
)

// ProviderDirectory is the slice of the provider manager the providers
// endpoint needs: listing, lookup, and gated selection.
type ProviderDirectory interface {
	GetByName(name string) (transcription.Provider, error)
	Get(ctx context.Context) (transcription.Provider, error)
}

// ProviderView describes one configured transcription backend.
type ProviderView struct {
	Name        string `json:"name"`
	Model       string `json:"model,omitempty"`
	Priority    int    `json:"priority"`
	Initialized bool   `json:"initialized"`
	Available   bool   `json:"available"`
}

// Providers returns a handler reporting every configured transcription
// backend in priority order, whether each can currently serve, and which
// one gated priority selection would pick. A backend with an open circuit
// or a missing API key shows available=false.
func Providers(dir ProviderDirectory, settings config.TranscriptionSettings) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		views := make([]ProviderView, 0, len(settings.Providers))
		for _, name := range settings.ProviderOrder() {
			ps := settings.Providers[name]
			view := ProviderView{Name: name, Model: ps.Model, Priority: ps.Priority}
			if p, err := dir.GetByName(name); err == nil {
				view.Initialized = true
				view.Available = p.IsAvailable(ctx)
			}
			views = append(views, view)
		}

		preferred := ""
		if p, err := dir.Get(ctx); err == nil {
			preferred = p.Name()
		}

		c.JSON(http.StatusOK, gin.H{
			"primary":   settings.Primary,
			"secondary": settings.Secondary,
			"preferred": preferred,
			"providers": views,
		})
	}
}
