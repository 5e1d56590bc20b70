package http

import (
	"net/http"

	"github.com/cmlabs-hris/leave-backend-go/internal/config"
	"github.com/cmlabs-hris/leave-backend-go/internal/handler/http/response"
)

// EnvResponse drives the environment banner of the front-end
type EnvResponse struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	Emoji   string `json:"emoji"`
	IsDev   bool   `json:"is_dev"`
	Version string `json:"version"`
}

type ConfigHandler interface {
	Env(w http.ResponseWriter, r *http.Request)
}

type configHandlerImpl struct {
	app config.AppConfig
}

func NewConfigHandler(app config.AppConfig) ConfigHandler {
	return &configHandlerImpl{app: app}
}

func (h *configHandlerImpl) Env(w http.ResponseWriter, r *http.Request) {
	name := h.app.Name
	if name == "" {
		name = h.app.Env
	}

	response.Success(w, EnvResponse{
		Name:    name,
		Color:   h.app.Color,
		Emoji:   h.app.Emoji,
		IsDev:   h.app.IsDev(),
		Version: h.app.Version,
	})
}
