package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/wallowawildlife/ww-backend/internal/auth"
	"github.com/wallowawildlife/ww-backend/internal/checklist"
	"github.com/wallowawildlife/ww-backend/internal/db"
	"github.com/wallowawildlife/ww-backend/internal/middleware"
)

// RootHandler sends the index to the full checklist.
func RootHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/wildlife", http.StatusSeeOther)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5050"
	}

	auth.Init()
	checklist.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Use(middleware.SessionMiddleware(auth.Manager()))
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/wildlife", checklist.SetupRoutes())

	log.Printf("Server listening on port :%s...", port)

	if err := http.ListenAndServe("0.0.0.0:"+port, r); err != nil {
		log.Fatal(err)
	}
}
