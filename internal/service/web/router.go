package web

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.serveWS)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/companies/excessive", func(w http.ResponseWriter, r *http.Request) {
			render.JSON(w, r, companiesResponse{Companies: s.state.excessive()})
		})

		r.Get("/companies/well-behaved/count", func(w http.ResponseWriter, r *http.Request) {
			render.JSON(w, r, countResponse{Count: s.state.wellBehaved()})
		})

		r.Get("/companies/{company}", func(w http.ResponseWriter, r *http.Request) {
			company, err := url.PathUnescape(chi.URLParam(r, "company"))
			if err != nil || company == "" {
				notFound(w, r, "unknown company")
				return
			}

			view, ok := s.state.company(company)
			if !ok {
				notFound(w, r, "unknown company")
				return
			}
			render.JSON(w, r, view)
		})

		r.Get("/flags/recent", func(w http.ResponseWriter, r *http.Request) {
			render.JSON(w, r, s.state.recent())
		})

		r.Get("/results/latest", func(w http.ResponseWriter, r *http.Request) {
			result, ok := s.state.result()
			if !ok {
				notFound(w, r, "no finished run")
				return
			}
			render.JSON(w, r, result)
		})
	})

	return r
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		s.log.Warn("websocket upgrade", "error", err)
		return
	}

	s.keeper.addConn(conn)
	go s.keeper.keep(conn)
}

func notFound(w http.ResponseWriter, r *http.Request, reason string) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, errResponse{Error: reason})
}
