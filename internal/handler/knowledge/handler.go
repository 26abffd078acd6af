package knowledge

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
	"github.com/zhouzirui/cyber-shield/backend/pkg/utils"
)

// Handler serves the menu and the known content keys.
type Handler struct {
	store knowledge.Store
}

// New creates the knowledge handler.
func New(store knowledge.Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes registers the knowledge routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/menu", h.handleMenu)
}

type menuResponse struct {
	Menu     []knowledge.MenuEntry `json:"menu"`
	Topics   []string              `json:"topics"`
	Keywords []string              `json:"keywords"`
	Phrases  []string              `json:"phrases"`
}

func (h *Handler) handleMenu(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, menuResponse{
		Menu:     h.store.Menu(),
		Topics:   h.store.Keys(knowledge.KindTopic),
		Keywords: h.store.Keys(knowledge.KindKeyword),
		Phrases:  h.store.Keys(knowledge.KindPhrase),
	})
}
