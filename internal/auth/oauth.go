// Package auth wires Google sign-in through goth.
package auth

import (
	"log"
	"net/http"
	"strings"

	"dryfruit_back_end/internal/config"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

const (
	ProviderGoogle = "google"
	sessionMaxAge  = 10 * 60
)

// Gothic runs the OAuth dance for one provider through gothic's session store.
type Gothic struct {
	provider string
}

// Setup registers the Google provider and backs gothic with a cookie store.
// It returns nil when Google credentials are missing.
func Setup(cfg *config.Config) *Gothic {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		log.Println("⚠️ Google sign-in disabled (GOOGLE_CLIENT_ID/SECRET missing)")
		return nil
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = cfg.JWTSecret
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   strings.HasPrefix(cfg.BaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	callback := strings.TrimRight(cfg.BaseURL, "/") + "/api/auth/google/callback"
	goth.UseProviders(google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, callback, "email", "profile"))
	log.Println("✅ Google OAuth enabled")
	return &Gothic{provider: ProviderGoogle}
}

func (g *Gothic) Provider() string { return g.provider }

// Begin redirects the browser to the provider's consent page.
func (g *Gothic) Begin(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, g.provider))
}

// Complete exchanges the callback code for the provider's user profile.
func (g *Gothic) Complete(w http.ResponseWriter, r *http.Request) (goth.User, error) {
	return gothic.CompleteUserAuth(w, gothic.GetContextWithProvider(r, g.provider))
}
