package firebase_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/firebase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type staticToken string

func (s staticToken) IDToken(context.Context) (string, error) {
	if s == "" {
		return "", firebase.ErrSignedOut
	}
	return string(s), nil
}

// documentServer is a single-collection Firestore REST stand-in.
type documentServer struct {
	t *testing.T

	mu        sync.Mutex
	documents map[string]string
	masks     [][]string
}

func (s *documentServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(s.t, "Bearer token-1", r.Header.Get("Authorization"))

	const prefix = "/v1/projects/demo/databases/(default)/documents/usuarios/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, prefix)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		doc, ok := s.documents[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found","status":"NOT_FOUND"}}`))
			return
		}
		_, _ = w.Write([]byte(doc))

	case http.MethodPatch:
		raw, err := io.ReadAll(r.Body)
		require.NoError(s.t, err)
		body := gjson.ParseBytes(raw)

		mask := r.URL.Query()["updateMask.fieldPaths"]
		s.masks = append(s.masks, mask)

		fields := map[string]string{}
		if existing, ok := s.documents[id]; ok && len(mask) > 0 {
			gjson.Get(existing, "fields").ForEach(func(k, v gjson.Result) bool {
				fields[k.String()] = v.Raw
				return true
			})
		}
		body.Get("fields").ForEach(func(k, v gjson.Result) bool {
			fields[k.String()] = v.Raw
			return true
		})

		var parts []string
		for k, v := range fields {
			parts = append(parts, `"`+k+`":`+v)
		}
		doc := `{"name":"` + id + `","fields":{` + strings.Join(parts, ",") + `}}`
		s.documents[id] = doc
		_, _ = w.Write([]byte(doc))

	case http.MethodDelete:
		delete(s.documents, id)
		_, _ = w.Write([]byte(`{}`))
	}
}

func newProfileStore(t *testing.T) (*firebase.ProfileStore, *documentServer) {
	t.Helper()

	srv := &documentServer{t: t, documents: map[string]string{}}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	store, err := firebase.NewProfileStore(firebase.FirestoreConfig{ProjectID: "demo", BaseURL: ts.URL}, staticToken("token-1"), ts.Client())
	require.NoError(t, err)

	return store, srv
}

func fakeProfile() domain.Profile {
	return domain.Profile{
		Name:  gofakeit.Name(),
		TaxID: "123.456.789-01",
		Phone: "(11) 98765-4321",
		Address: domain.Address{
			PostalCode:   "01001000",
			Street:       "Praça da Sé",
			Number:       "100",
			Complement:   "lado ímpar",
			Neighborhood: "Sé",
			City:         "São Paulo",
			Region:       "SP",
		},
		UpdatedAt: time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestProfileStore_RoundTrip(t *testing.T) {
	ctx := t.Context()
	store, srv := newProfileStore(t)
	userID := gofakeit.UUID()

	_, found, err := store.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found)

	want := fakeProfile()
	require.NoError(t, store.SetProfile(ctx, userID, want, true))

	got, found, err := store.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	require.Len(t, srv.masks, 1)
	assert.ElementsMatch(t, []string{
		"nome", "cpf", "telefone", "cep", "endereco", "numero", "complemento", "bairro", "cidade", "estado", "updatedAt",
	}, srv.masks[0])
}

func TestProfileStore_MergeKeepsUnknownFields(t *testing.T) {
	ctx := t.Context()
	store, srv := newProfileStore(t)
	userID := gofakeit.UUID()

	srv.documents[userID] = `{"fields":{"favorito":{"stringValue":"unicornio"},"nome":{"stringValue":"old"}}}`

	require.NoError(t, store.SetProfile(ctx, userID, fakeProfile(), true))
	assert.Equal(t, "unicornio", gjson.Get(srv.documents[userID], "fields.favorito.stringValue").String())

	require.NoError(t, store.SetProfile(ctx, userID, fakeProfile(), false))
	assert.False(t, gjson.Get(srv.documents[userID], "fields.favorito").Exists())
	assert.Empty(t, srv.masks[1])
}

func TestProfileStore_Delete(t *testing.T) {
	ctx := t.Context()
	store, _ := newProfileStore(t)
	userID := gofakeit.UUID()

	existed, err := store.DeleteProfile(ctx, userID)
	require.NoError(t, err)
	assert.False(t, existed)

	require.NoError(t, store.SetProfile(ctx, userID, fakeProfile(), true))

	existed, err = store.DeleteProfile(ctx, userID)
	require.NoError(t, err)
	assert.True(t, existed)

	_, found, err := store.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProfileStore_Errors(t *testing.T) {
	ctx := t.Context()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Missing or insufficient permissions.","status":"PERMISSION_DENIED"}}`))
	}))
	defer ts.Close()

	store, err := firebase.NewProfileStore(firebase.FirestoreConfig{ProjectID: "demo", BaseURL: ts.URL}, staticToken("token-1"), ts.Client())
	require.NoError(t, err)

	_, _, err = store.GetProfile(ctx, "u1")
	var apiErr *firebase.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "PERMISSION_DENIED", apiErr.Code)

	_, _, err = store.GetProfile(ctx, "")
	assert.EqualError(t, err, "userID is empty")

	signedOut, err := firebase.NewProfileStore(firebase.FirestoreConfig{ProjectID: "demo", BaseURL: ts.URL}, staticToken(""), ts.Client())
	require.NoError(t, err)
	err = signedOut.SetProfile(ctx, "u1", fakeProfile(), true)
	assert.True(t, errors.Is(err, firebase.ErrSignedOut))
}
