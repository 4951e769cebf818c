package server

import "github.com/go-chi/chi/v5"

// Registrar is a common interface for all HTTP service registrars.
// Routes are mounted under /api.
type Registrar interface {
	Register(r chi.Router)
}
