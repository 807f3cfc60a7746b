// Package web serves classification queries over HTTP and pushes live
// updates to websocket subscribers. Its view is fed only by bus events.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/zamyatin-zkex/cancelwatch/internal/event"
)

type Server struct {
	web    *http.Server
	keeper *keeper
	state  *state
	log    *slog.Logger
}

func New(addr string, log *slog.Logger) *Server {
	serv := &Server{
		web: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		keeper: newKeeper(),
		state:  newState(),
		log:    log,
	}
	serv.web.Handler = serv.router()
	return serv
}

func (s *Server) Run(ctx context.Context) error {
	closed := make(chan error, 1)

	go func() {
		s.log.Info("web listening", "addr", s.web.Addr)
		closed <- s.web.ListenAndServe()
	}()

	select {
	case err := <-closed:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.web.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("web shutdown", "error", err)
		}
		return ctx.Err()
	}
}

func (s *Server) UpdateStats(ctx context.Context, stats event.StatsUpdated) error {
	s.state.update(stats.Stats)

	s.keeper.walk(func(c *client) error {
		for company := range c.subs {
			view, ok := s.state.company(company)
			if !ok {
				continue
			}
			if err := c.send(view); err != nil {
				return err
			}
		}
		return nil
	})

	return nil
}

func (s *Server) Flagged(ctx context.Context, flag event.CompanyFlagged) error {
	s.state.flag(flag)

	s.keeper.walk(func(c *client) error {
		return c.send(flag)
	})

	return nil
}

func (s *Server) Published(ctx context.Context, published event.ResultPublished) error {
	s.state.publish(published.Result)
	return nil
}
