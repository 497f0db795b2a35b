package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"pokerbeat/internal/broadcast"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type RouterDeps struct {
	Store    TableStore
	Sup      Enqueuer
	Hub      *broadcast.Hub
	AdminKey string
	NewID    func() string
}

func NewRouter(d RouterDeps) *chi.Mux {
	tables := NewTableHandlers(d.Store, d.Sup)
	admin := NewAdminHandlers(d.Store, d.Sup, d.NewID)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", admin.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Route("/tables/{table_id}", func(r chi.Router) {
			r.Post("/actions", tables.Actions())
			r.Get("/state", tables.State())
			r.Get("/log", tables.Log())
			r.Get("/chat", tables.Chat())
			r.Get("/notifications", tables.Notifications())
			r.Get("/stats", tables.Stats())
			r.Get("/events", EventsSSEHandler(d.Hub, d.Store, d.Sup))
		})

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(d.AdminKey))
			r.Route("/admin", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Post("/tables", admin.CreateTable())
				r.Post("/fund", admin.Fund())
				r.Get("/balance", admin.Balance())
				r.Post("/tables/{table_id}/force", admin.ForceAction())
			})
			r.Get("/debug/vars", expvar.Handler().ServeHTTP)
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
