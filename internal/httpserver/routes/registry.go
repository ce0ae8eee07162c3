package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
)

// Registrar mounts one group of routes. Registrars build their own
// middlewares because most of them depend on configuration in deps.
type Registrar func(r chi.Router, d deps.Deps)

var registry []Registrar

// Register adds a registrar; called from init() in each route file.
func Register(reg Registrar) {
	registry = append(registry, reg)
}

// RegisterAll mounts every registered group. Called once from httpserver.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registry {
		reg(r, d)
	}
}
