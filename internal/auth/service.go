// Package auth implements the Google OAuth login flow, session cookies, and
// the middleware protecting admin endpoints. Tokens obtained here are handed
// to the Google client for storage; auth itself never touches ciphertext.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/xBwomp/famCalendar/internal/api"
	"github.com/xBwomp/famCalendar/internal/config"
	"github.com/xBwomp/famCalendar/internal/credentials"
	"github.com/xBwomp/famCalendar/internal/google"
	"github.com/xBwomp/famCalendar/internal/store"
)

const (
	googleIssuer    = "https://accounts.google.com"
	stateCookieName = "famcal_oauth_state"
	stateTTL        = 10 * time.Minute
)

// Profile is the admin identity captured at login.
type Profile struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Service encapsulates the OAuth/OIDC login flow for the single admin user.
type Service struct {
	cfg      *config.Config
	creds    *credentials.Store
	client   *google.Client
	monitor  *credentials.Monitor
	sessions *SessionManager

	verifierMu sync.Mutex
	verifier   *oidc.IDTokenVerifier
}

func NewService(cfg *config.Config, creds *credentials.Store, client *google.Client, monitor *credentials.Monitor, sessions *SessionManager) *Service {
	return &Service{
		cfg:      cfg,
		creds:    creds,
		client:   client,
		monitor:  monitor,
		sessions: sessions,
	}
}

// verifierFor lazily constructs the ID token verifier. Discovery needs the
// network, so it happens on first callback rather than at startup.
func (s *Service) verifierFor(r *http.Request) (*oidc.IDTokenVerifier, error) {
	s.verifierMu.Lock()
	defer s.verifierMu.Unlock()
	if s.verifier != nil {
		return s.verifier, nil
	}
	provider, err := oidc.NewProvider(r.Context(), googleIssuer)
	if err != nil {
		return nil, err
	}
	s.verifier = provider.Verifier(&oidc.Config{ClientID: s.cfg.Google.ClientID})
	return s.verifier, nil
}

// BeginOAuth redirects to Google's consent screen with a random state nonce
// bound to a short-lived cookie. Offline access with forced consent ensures
// a refresh token is issued even on re-login.
func (s *Service) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		api.InternalError(w, r, err, "failed to generate oauth state")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(stateTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := s.client.OAuthConfig().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	http.Redirect(w, r, url, http.StatusFound)
}

// HandleOAuthCallback validates state, exchanges the code, verifies the ID
// token, and persists tokens and profile. On success the browser is sent to
// the admin page with an active session.
func (s *Service) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		api.Error(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	// State is single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0)})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		api.Error(w, http.StatusBadRequest, "authorization denied: "+errParam)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		api.Error(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := s.client.OAuthConfig().Exchange(r.Context(), code)
	if err != nil {
		api.InternalError(w, r, err, "oauth code exchange failed")
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		api.Error(w, http.StatusBadGateway, "identity provider returned no id token")
		return
	}

	verifier, err := s.verifierFor(r)
	if err != nil {
		api.InternalError(w, r, err, "oidc discovery failed")
		return
	}
	idToken, err := verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		api.Error(w, http.StatusUnauthorized, "id token verification failed")
		return
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		api.InternalError(w, r, err, "failed to parse id token claims")
		return
	}

	if err := s.client.StoreNewToken(r.Context(), token); err != nil {
		api.InternalError(w, r, err, "failed to store google tokens")
		return
	}

	profile := map[string]string{
		credentials.KeyAdminUserID:      idToken.Subject,
		credentials.KeyAdminUserEmail:   claims.Email,
		credentials.KeyAdminUserName:    claims.Name,
		credentials.KeyAdminUserPicture: claims.Picture,
	}
	if _, err := s.creds.SetMany(r.Context(), profile); err != nil {
		api.InternalError(w, r, err, "failed to store admin profile")
		return
	}

	if err := s.sessions.Issue(w, idToken.Subject); err != nil {
		api.InternalError(w, r, err, "failed to issue session")
		return
	}

	http.Redirect(w, r, "/admin", http.StatusFound)
}

// Logout clears the session cookie. Stored Google tokens are untouched so
// sync keeps running; logout only ends the browser session.
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	api.RespondMessage(w, http.StatusOK, nil, "Logged out")
}

// Status reports whether the caller holds a valid session and whether
// Google credentials have been activated.
func (s *Service) Status(w http.ResponseWriter, r *http.Request) {
	_, authenticated := s.sessions.CurrentSubject(r)
	api.Respond(w, http.StatusOK, map[string]any{
		"authenticated":    authenticated,
		"credentialsState": s.monitor.State().String(),
	})
}

// Profile returns the stored admin identity for the current session.
func (s *Service) Profile(w http.ResponseWriter, r *http.Request) {
	values, err := s.creds.GetMany(r.Context(), []string{
		credentials.KeyAdminUserID,
		credentials.KeyAdminUserEmail,
		credentials.KeyAdminUserName,
		credentials.KeyAdminUserPicture,
	})
	if err != nil {
		api.InternalError(w, r, err, "failed to load admin profile")
		return
	}
	if values[credentials.KeyAdminUserID] == "" {
		api.Error(w, http.StatusNotFound, "no admin profile stored")
		return
	}

	api.Respond(w, http.StatusOK, Profile{
		UserID:  values[credentials.KeyAdminUserID],
		Email:   values[credentials.KeyAdminUserEmail],
		Name:    values[credentials.KeyAdminUserName],
		Picture: values[credentials.KeyAdminUserPicture],
	})
}

// RequireAdmin rejects requests without a valid session. It also verifies
// that the session subject still matches the stored admin user, so a stale
// cookie from a previous admin cannot act after re-authentication.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := s.sessions.CurrentSubject(r)
		if !ok {
			api.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}

		storedID, err := s.creds.Get(r.Context(), credentials.KeyAdminUserID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			api.InternalError(w, r, err, "failed to load admin user")
			return
		}
		if storedID != "" && storedID != subject {
			s.sessions.Clear(w)
			api.Error(w, http.StatusUnauthorized, "session no longer valid")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
	})
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
