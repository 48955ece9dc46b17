package checklist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wallowawildlife/ww-backend/internal/middleware"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", ListAllHandler)
	r.Get("/{creatureID:[0-9]+}", ShowHandler)
	r.Get("/{slug}", ListByTypeHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/add", AddFormHandler)
		r.Post("/add", AddHandler)
		r.Get("/{creatureID:[0-9]+}/edit", EditFormHandler)
		r.Post("/{creatureID:[0-9]+}/edit", EditHandler)
		r.Get("/{creatureID:[0-9]+}/delete", DeleteFormHandler)
		r.Post("/{creatureID:[0-9]+}/delete", DeleteHandler)
	})

	return r
}
