package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wallowawildlife/ww-backend/internal/middleware"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Get("/register", RegisterFormHandler)
	r.Get("/login", LoginFormHandler)
	r.Get("/callback", CallbackHandler)
	r.Get("/logout", LogoutHandler)

	// Credential-bearing POSTs get per-IP rate limiting to blunt
	// password-guessing and name-enumeration attempts.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(middleware.AuthLimits()))
		r.Post("/register", RegisterHandler)
		r.Post("/login", LoginHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", MeHandler)
	})

	return r
}
