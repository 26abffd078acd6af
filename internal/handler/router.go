package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/cyber-shield/backend/internal/handler/chat"
	"github.com/zhouzirui/cyber-shield/backend/internal/handler/knowledge"
	"github.com/zhouzirui/cyber-shield/backend/internal/handler/stream"
	"github.com/zhouzirui/cyber-shield/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/cyber-shield/backend/internal/middleware"
	knowledgeModel "github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
	chatService "github.com/zhouzirui/cyber-shield/backend/internal/service/chat"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(store knowledgeModel.Store, chatSvc *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		knowledge.New(store).RegisterRoutes(api)
		chat.New(chatSvc).RegisterRoutes(api)
		stream.New(chatSvc).RegisterRoutes(api)
		ws.New(chatSvc, store).RegisterRoutes(api)
	})

	return r
}
