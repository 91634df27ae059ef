// Package firebase talks to Firebase Auth and Cloud Firestore over their REST APIs.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/notify"
	"github.com/nikolayk812/partyshop/internal/port"
	"github.com/tidwall/gjson"
)

const (
	DefaultAuthURL  = "https://identitytoolkit.googleapis.com"
	DefaultTokenURL = "https://securetoken.googleapis.com"

	// userKey holds the signed-in user between process runs.
	userKey = "authUser"

	refreshLeeway = time.Minute
)

var (
	_ port.CredentialGateway = (*Auth)(nil)
	_ port.TokenSource       = (*Auth)(nil)
)

type AuthConfig struct {
	APIKey   string
	AuthURL  string
	TokenURL string
}

// Auth is a credential gateway over the Identity Toolkit and Secure Token endpoints.
type Auth struct {
	cfg    AuthConfig
	client *http.Client
	kv     port.KeyValueStore
	logger *slog.Logger
	now    func() time.Time

	// serializes sign-in state transitions and token refreshes
	mu    sync.Mutex
	users *notify.Broadcaster[*domain.Identity]
}

// NewAuth restores the user persisted in kv by a previous run.
func NewAuth(ctx context.Context, cfg AuthConfig, kv port.KeyValueStore, client *http.Client, logger *slog.Logger) (*Auth, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is empty")
	}
	if kv == nil {
		return nil, fmt.Errorf("kv is nil")
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}

	var current *domain.Identity

	raw, ok, err := kv.Get(ctx, userKey)
	if err != nil {
		return nil, fmt.Errorf("kv.Get: %w", err)
	}
	if ok {
		var id domain.Identity
		if err := json.Unmarshal(raw, &id); err != nil {
			logger.Warn("persisted user is not valid", slog.Any("error", err))
		} else {
			current = &id
		}
	}

	return &Auth{
		cfg:    cfg,
		client: client,
		kv:     kv,
		logger: logger.With(slog.String("component", "firebase_auth")),
		now:    time.Now,
		users:  notify.New(current, domain.CloneIdentity),
	}, nil
}

func (a *Auth) Subscribe() (func(), <-chan *domain.Identity) {
	return a.users.Subscribe()
}

func (a *Auth) Current() *domain.Identity {
	return a.users.Current()
}

func (a *Auth) Close() {
	a.users.Close()
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	return a.signIn(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             strings.TrimSpace(email),
		"password":          password,
		"returnSecureToken": true,
	})
}

func (a *Auth) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	return a.signIn(ctx, "accounts:signUp", map[string]any{
		"email":             strings.TrimSpace(email),
		"password":          password,
		"returnSecureToken": true,
	})
}

// SignInAnonymously creates a new anonymous account; Identity Toolkit does that on a sign-up without email.
func (a *Auth) SignInAnonymously(ctx context.Context) (domain.Identity, error) {
	return a.signIn(ctx, "accounts:signUp", map[string]any{
		"returnSecureToken": true,
	})
}

// SignOut forgets the local session. Firebase has no server-side sign-out for ID tokens.
func (a *Auth) SignOut(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.kv.Delete(ctx, userKey); err != nil {
		return domain.NewUnavailableError(domain.DefaultMessage, fmt.Errorf("kv.Delete: %w", err))
	}

	a.users.Publish(nil)

	return nil
}

// IDToken returns the signed-in user's token, refreshing it when it is about to expire.
func (a *Auth) IDToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.users.Current()
	if current == nil {
		return "", ErrSignedOut
	}

	if !current.Expired(a.now(), refreshLeeway) {
		return current.IDToken, nil
	}

	refreshed, err := a.refresh(ctx, *current)
	if err != nil {
		return "", fmt.Errorf("a.refresh: %w", err)
	}

	if err := a.persist(ctx, refreshed); err != nil {
		a.logger.Error("refreshed user not persisted", slog.Any("error", err))
	}
	a.users.Publish(&refreshed)

	return refreshed.IDToken, nil
}

func (a *Auth) signIn(ctx context.Context, method string, payload map[string]any) (domain.Identity, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("json.Marshal: %w", err)
	}

	endpoint := a.cfg.AuthURL + "/v1/" + method + "?key=" + url.QueryEscape(a.cfg.APIKey)

	res, err := a.post(ctx, endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return domain.Identity{}, err
	}

	id := domain.Identity{
		UID:          res.Get("localId").String(),
		Email:        res.Get("email").String(),
		IDToken:      res.Get("idToken").String(),
		RefreshToken: res.Get("refreshToken").String(),
		ExpiresAt:    a.now().Add(time.Duration(res.Get("expiresIn").Int()) * time.Second).UTC(),
	}
	if id.UID == "" {
		return domain.Identity{}, domain.NewUnavailableError(domain.DefaultMessage, errors.New("firebase: response has no localId"))
	}
	a.applyClaims(&id)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.persist(ctx, id); err != nil {
		a.logger.Error("signed-in user not persisted", slog.Any("error", err))
	}
	a.users.Publish(&id)

	return id, nil
}

func (a *Auth) refresh(ctx context.Context, id domain.Identity) (domain.Identity, error) {
	if id.RefreshToken == "" {
		return domain.Identity{}, ErrSignedOut
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", id.RefreshToken)

	endpoint := a.cfg.TokenURL + "/v1/token?key=" + url.QueryEscape(a.cfg.APIKey)

	res, err := a.post(ctx, endpoint, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Identity{}, err
	}

	id.IDToken = res.Get("id_token").String()
	if token := res.Get("refresh_token").String(); token != "" {
		id.RefreshToken = token
	}
	id.ExpiresAt = a.now().Add(time.Duration(res.Get("expires_in").Int()) * time.Second).UTC()
	a.applyClaims(&id)

	return id, nil
}

// applyClaims reads provider and expiry from the ID token without verifying its signature.
func (a *Auth) applyClaims(id *domain.Identity) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(id.IDToken, claims); err != nil {
		a.logger.Debug("id token claims not readable", slog.Any("error", err))
	} else {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			id.ExpiresAt = exp.UTC()
		}
		if fb, ok := claims["firebase"].(map[string]any); ok {
			if provider, ok := fb["sign_in_provider"].(string); ok {
				id.Provider = provider
			}
		}
	}

	if id.Provider == "" {
		id.Provider = "password"
		if id.Email == "" {
			id.Provider = "anonymous"
		}
	}
	id.Anonymous = id.Provider == "anonymous"
}

func (a *Auth) persist(ctx context.Context, id domain.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := a.kv.Set(ctx, userKey, raw); err != nil {
		return fmt.Errorf("kv.Set: %w", err)
	}

	return nil
}

func (a *Auth) post(ctx context.Context, endpoint, contentType string, body io.Reader) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := a.client.Do(req)
	if err != nil {
		return gjson.Result{}, domain.NewUnavailableError(domain.DefaultMessage, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return gjson.Result{}, domain.NewUnavailableError(domain.DefaultMessage, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return gjson.Result{}, domain.NewUnavailableError(domain.DefaultMessage,
			fmt.Errorf("firebase: status %d", resp.StatusCode))
	}

	if resp.StatusCode != http.StatusOK {
		message := gjson.GetBytes(raw, "error.message").String()
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return gjson.Result{}, rejected(message, resp.StatusCode)
	}

	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, domain.NewUnavailableError(domain.DefaultMessage, errors.New("firebase: response is not json"))
	}

	return gjson.ParseBytes(raw), nil
}
