package auth

import (
	"log"

	"github.com/wallowawildlife/ww-backend/internal/db"
)

// Package-level collaborators, wired once at startup by Init.
var (
	store         CredentialStore
	manager       *SessionManager
	authenticator *Authenticator
	providerCfg   ProviderConfig
)

func Init() {
	if err := db.EnsureSchema(db.DB, "app_auth"); err != nil {
		log.Fatal("Failed to ensure schema app_auth: ", err)
	}

	if err := db.DB.AutoMigrate(&Identity{}, &Session{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	providerCfg = LoadProviderConfig()
	if providerCfg.Enabled() {
		if err := providerCfg.Validate(); err != nil {
			log.Fatal("Invalid provider config: ", err)
		}
		log.Println("[auth] external login enabled")
	} else {
		log.Println("[auth] external login disabled (no provider configured)")
	}

	store = NewGormStore(db.DB)
	manager = NewSessionManager(db.DB, store)
	authenticator = NewAuthenticator(store, NewProviderClient(providerCfg), providerCfg.ClientID)
}

// Manager exposes the session manager for wiring the root session middleware
// in main.
func Manager() *SessionManager {
	return manager
}

// Store exposes the credential store for auxiliary binaries.
func Store() CredentialStore {
	return store
}
