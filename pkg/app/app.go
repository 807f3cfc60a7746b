package app

import (
	"context"
	"log/slog"

	"github.com/oklog/run"
)

// App runs services as one oklog/run group: the first one to return stops the rest.
type App struct {
	services map[string]Service
	order    []string
	runner   *run.Group
	log      *slog.Logger
}

func NewApp(log *slog.Logger) *App {
	return &App{
		services: make(map[string]Service),
		runner:   &run.Group{},
		log:      log,
	}
}

func (a *App) WithService(name string, s Service) *App {
	if _, ok := a.services[name]; !ok {
		a.order = append(a.order, name)
	}
	a.services[name] = s
	return a
}

func (a *App) Run(ctx context.Context) error {
	for _, name := range a.order {
		a.runner.Add(actor(ctx, name, a.services[name], a.log))
	}

	return a.runner.Run()
}
