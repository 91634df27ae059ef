package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/port"
	"github.com/tidwall/gjson"
)

const (
	DefaultFirestoreURL = "https://firestore.googleapis.com"

	profileCollection = "usuarios"
)

// profileFields lists the document fields, in the order they are written.
var profileFields = []string{
	"nome", "cpf", "telefone", "cep", "endereco", "numero", "complemento", "bairro", "cidade", "estado", "updatedAt",
}

var _ port.ProfileStore = (*ProfileStore)(nil)

type FirestoreConfig struct {
	ProjectID string
	BaseURL   string
}

// ProfileStore keeps one document per user in the usuarios collection.
type ProfileStore struct {
	documents string
	client    *http.Client
	tokens    port.TokenSource
}

func NewProfileStore(cfg FirestoreConfig, tokens port.TokenSource, client *http.Client) (*ProfileStore, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("project id is empty")
	}
	if tokens == nil {
		return nil, fmt.Errorf("tokens is nil")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultFirestoreURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &ProfileStore{
		documents: fmt.Sprintf("%s/v1/projects/%s/databases/(default)/documents",
			cfg.BaseURL, url.PathEscape(cfg.ProjectID)),
		client: client,
		tokens: tokens,
	}, nil
}

func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (domain.Profile, bool, error) {
	if userID == "" {
		return domain.Profile{}, false, fmt.Errorf("userID is empty")
	}

	body, status, err := s.do(ctx, http.MethodGet, s.documentURL(userID, nil), nil)
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("s.do: %w", err)
	}

	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return domain.Profile{}, false, nil
	default:
		return domain.Profile{}, false, statusError(status, body)
	}

	profile, err := decodeProfile(gjson.GetBytes(body, "fields"))
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("decodeProfile: %w", err)
	}

	return profile, true, nil
}

// SetProfile with merge set patches only the profile fields; without it the document is replaced.
func (s *ProfileStore) SetProfile(ctx context.Context, userID string, profile domain.Profile, merge bool) error {
	if userID == "" {
		return fmt.Errorf("userID is empty")
	}

	payload, err := json.Marshal(map[string]any{"fields": encodeProfile(profile)})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	var query url.Values
	if merge {
		query = url.Values{}
		for _, field := range profileFields {
			query.Add("updateMask.fieldPaths", field)
		}
	}

	body, status, err := s.do(ctx, http.MethodPatch, s.documentURL(userID, query), payload)
	if err != nil {
		return fmt.Errorf("s.do: %w", err)
	}
	if status != http.StatusOK {
		return statusError(status, body)
	}

	return nil
}

func (s *ProfileStore) DeleteProfile(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is empty")
	}

	_, found, err := s.GetProfile(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("s.GetProfile: %w", err)
	}
	if !found {
		return false, nil
	}

	body, status, err := s.do(ctx, http.MethodDelete, s.documentURL(userID, nil), nil)
	if err != nil {
		return false, fmt.Errorf("s.do: %w", err)
	}
	if status != http.StatusOK {
		return false, statusError(status, body)
	}

	return true, nil
}

func (s *ProfileStore) documentURL(userID string, query url.Values) string {
	u := s.documents + "/" + profileCollection + "/" + url.PathEscape(userID)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (s *ProfileStore) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, int, error) {
	token, err := s.tokens.IDToken(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("tokens.IDToken: %w", err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("client.Do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("io.ReadAll: %w", err)
	}

	return raw, resp.StatusCode, nil
}

func statusError(status int, body []byte) error {
	message := gjson.GetBytes(body, "error.message").String()
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{Status: status, Code: gjson.GetBytes(body, "error.status").String(), Message: message}
}

type value map[string]string

func encodeProfile(p domain.Profile) map[string]value {
	fields := map[string]value{
		"nome":        {"stringValue": p.Name},
		"cpf":         {"stringValue": p.TaxID},
		"telefone":    {"stringValue": p.Phone},
		"cep":         {"stringValue": p.Address.PostalCode},
		"endereco":    {"stringValue": p.Address.Street},
		"numero":      {"stringValue": p.Address.Number},
		"complemento": {"stringValue": p.Address.Complement},
		"bairro":      {"stringValue": p.Address.Neighborhood},
		"cidade":      {"stringValue": p.Address.City},
		"estado":      {"stringValue": p.Address.Region},
	}

	if p.UpdatedAt.IsZero() {
		fields["updatedAt"] = value{"nullValue": "NULL_VALUE"}
	} else {
		fields["updatedAt"] = value{"timestampValue": p.UpdatedAt.UTC().Format(time.RFC3339Nano)}
	}

	return fields
}

func decodeProfile(fields gjson.Result) (domain.Profile, error) {
	str := func(name string) string {
		return fields.Get(name + ".stringValue").String()
	}

	p := domain.Profile{
		Name:  str("nome"),
		TaxID: str("cpf"),
		Phone: str("telefone"),
		Address: domain.Address{
			PostalCode:   str("cep"),
			Street:       str("endereco"),
			Number:       str("numero"),
			Complement:   str("complemento"),
			Neighborhood: str("bairro"),
			City:         str("cidade"),
			Region:       str("estado"),
		},
	}

	if ts := fields.Get("updatedAt.timestampValue"); ts.Exists() {
		updatedAt, err := time.Parse(time.RFC3339Nano, ts.String())
		if err != nil {
			return domain.Profile{}, fmt.Errorf("updatedAt[%s] is not valid: %w", ts.String(), err)
		}
		p.UpdatedAt = updatedAt
	}

	return p, nil
}
