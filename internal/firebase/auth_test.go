package firebase_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang-jwt/jwt/v5"
	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/firebase"
	"github.com/nikolayk812/partyshop/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKey = "test-key"

func idToken(t *testing.T, uid, provider string, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      uid,
		"exp":      exp.Unix(),
		"firebase": map[string]any{"sign_in_provider": provider},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	return signed
}

type identityServer struct {
	t         *testing.T
	uid       string
	refreshes atomic.Int32
	expiry    time.Time
}

func (s *identityServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("key") != apiKey {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API_KEY_INVALID"}}`))
		return
	}

	switch r.URL.Path {
	case "/v1/accounts:signInWithPassword":
		var body map[string]any
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&body))

		if body["password"] != "Abc123!" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`))
			return
		}
		s.writeUser(w, body["email"].(string), "password")

	case "/v1/accounts:signUp":
		var body map[string]any
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&body))

		email, _ := body["email"].(string)
		if email == "taken@example.com" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"EMAIL_EXISTS"}}`))
			return
		}
		if pw, _ := body["password"].(string); email != "" && len(pw) < 6 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"WEAK_PASSWORD : Password should be at least 6 characters"}}`))
			return
		}
		provider := "password"
		if email == "" {
			provider = "anonymous"
		}
		s.writeUser(w, email, provider)

	case "/v1/token":
		require.NoError(s.t, r.ParseForm())
		assert.Equal(s.t, "refresh_token", r.PostForm.Get("grant_type"))
		s.refreshes.Add(1)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id_token":      idToken(s.t, s.uid, "password", time.Now().Add(time.Hour)),
			"refresh_token": "refresh-2",
			"expires_in":    "3600",
			"user_id":       s.uid,
		})

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *identityServer) writeUser(w http.ResponseWriter, email, provider string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"localId":      s.uid,
		"email":        email,
		"idToken":      idToken(s.t, s.uid, provider, s.expiry),
		"refreshToken": "refresh-1",
		"expiresIn":    "3600",
	})
}

func newAuth(t *testing.T, kv *memory.Store, expiry time.Time) (*firebase.Auth, *identityServer) {
	t.Helper()

	srv := &identityServer{t: t, uid: gofakeit.UUID(), expiry: expiry}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	auth, err := firebase.NewAuth(t.Context(), firebase.AuthConfig{
		APIKey:   apiKey,
		AuthURL:  ts.URL,
		TokenURL: ts.URL,
	}, kv, ts.Client(), nil)
	require.NoError(t, err)
	t.Cleanup(auth.Close)

	return auth, srv
}

func TestAuth_SignIn(t *testing.T) {
	ctx := t.Context()
	kv := memory.New()
	auth, srv := newAuth(t, kv, time.Now().Add(time.Hour))

	unsubscribe, updates := auth.Subscribe()
	defer unsubscribe()
	assert.Nil(t, <-updates)

	email := gofakeit.Email()
	id, err := auth.SignIn(ctx, email, "Abc123!")
	require.NoError(t, err)

	assert.Equal(t, srv.uid, id.UID)
	assert.Equal(t, email, id.Email)
	assert.Equal(t, "password", id.Provider)
	assert.False(t, id.Anonymous)
	assert.WithinDuration(t, time.Now().Add(time.Hour), id.ExpiresAt, time.Minute)

	got := <-updates
	require.NotNil(t, got)
	assert.Equal(t, srv.uid, got.UID)

	token, err := auth.IDToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, id.IDToken, token)
	assert.Zero(t, srv.refreshes.Load())
}

func TestAuth_SignInAnonymously(t *testing.T) {
	auth, _ := newAuth(t, memory.New(), time.Now().Add(time.Hour))

	id, err := auth.SignInAnonymously(t.Context())
	require.NoError(t, err)
	assert.True(t, id.Anonymous)
	assert.Equal(t, "anonymous", id.Provider)
}

func TestAuth_Rejections(t *testing.T) {
	ctx := t.Context()
	auth, _ := newAuth(t, memory.New(), time.Now().Add(time.Hour))

	tests := []struct {
		name    string
		call    func() error
		message string
	}{
		{
			name: "wrong credentials",
			call: func() error {
				_, err := auth.SignIn(ctx, gofakeit.Email(), "wrong")
				return err
			},
			message: "E-mail ou senha incorretos.",
		},
		{
			name: "email exists",
			call: func() error {
				_, err := auth.SignUp(ctx, "taken@example.com", "Abc123!")
				return err
			},
			message: "Este e-mail já está em uso.",
		},
		{
			name: "weak password with detail",
			call: func() error {
				_, err := auth.SignUp(ctx, gofakeit.Email(), "abc")
				return err
			},
			message: "A senha deve ter no mínimo 6 caracteres.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.True(t, domain.IsKind(err, domain.KindRejected))
			assert.Equal(t, tt.message, domain.MessageOf(err))

			var apiErr *firebase.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		})
	}

	assert.Nil(t, auth.Current())
}

func TestAuth_UnknownErrorCode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"SOMETHING_NEW"}}`))
	}))
	defer ts.Close()

	auth, err := firebase.NewAuth(t.Context(), firebase.AuthConfig{APIKey: apiKey, AuthURL: ts.URL}, memory.New(), ts.Client(), nil)
	require.NoError(t, err)
	defer auth.Close()

	_, err = auth.SignIn(t.Context(), "a@b.c", "x")
	assert.Equal(t, domain.DefaultMessage, domain.MessageOf(err))
}

func TestAuth_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	auth, err := firebase.NewAuth(t.Context(), firebase.AuthConfig{APIKey: apiKey, AuthURL: ts.URL}, memory.New(), ts.Client(), nil)
	require.NoError(t, err)
	defer auth.Close()

	_, err = auth.SignInAnonymously(t.Context())
	assert.True(t, domain.IsKind(err, domain.KindUnavailable))
}

func TestAuth_PersistsAcrossRestarts(t *testing.T) {
	ctx := t.Context()
	kv := memory.New()

	first, srv := newAuth(t, kv, time.Now().Add(time.Hour))
	_, err := first.SignIn(ctx, gofakeit.Email(), "Abc123!")
	require.NoError(t, err)
	first.Close()

	second, _ := newAuth(t, kv, time.Now().Add(time.Hour))
	current := second.Current()
	require.NotNil(t, current)
	assert.Equal(t, srv.uid, current.UID)

	require.NoError(t, second.SignOut(ctx))
	assert.Nil(t, second.Current())

	third, _ := newAuth(t, kv, time.Now().Add(time.Hour))
	assert.Nil(t, third.Current())
}

func TestAuth_IDTokenRefresh(t *testing.T) {
	ctx := t.Context()
	auth, srv := newAuth(t, memory.New(), time.Now().Add(30*time.Second))

	id, err := auth.SignIn(ctx, gofakeit.Email(), "Abc123!")
	require.NoError(t, err)

	token, err := auth.IDToken(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, id.IDToken, token)
	assert.Equal(t, int32(1), srv.refreshes.Load())

	current := auth.Current()
	require.NotNil(t, current)
	assert.Equal(t, "refresh-2", current.RefreshToken)

	again, err := auth.IDToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, again)
	assert.Equal(t, int32(1), srv.refreshes.Load())
}

func TestAuth_IDTokenSignedOut(t *testing.T) {
	auth, _ := newAuth(t, memory.New(), time.Now().Add(time.Hour))

	_, err := auth.IDToken(t.Context())
	assert.ErrorIs(t, err, firebase.ErrSignedOut)
}

func TestNewAuth_Validation(t *testing.T) {
	_, err := firebase.NewAuth(t.Context(), firebase.AuthConfig{}, memory.New(), nil, nil)
	assert.EqualError(t, err, "api key is empty")

	_, err = firebase.NewAuth(t.Context(), firebase.AuthConfig{APIKey: apiKey}, nil, nil, nil)
	assert.EqualError(t, err, "kv is nil")
}
