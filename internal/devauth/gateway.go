// Package devauth provides in-process stand-ins for the hosted identity and profile services,
// used with AUTH_MODE=mock. State lives in a device key-value store, so it survives restarts
// when that store does.
package devauth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/notify"
	"github.com/nikolayk812/partyshop/internal/port"
	"golang.org/x/crypto/bcrypt"
)

const (
	userKey     = "authUser"
	accountsKey = "devAccounts"

	ProviderPassword  = "password"
	ProviderAnonymous = "anonymous"
)

const (
	msgUserNotFound  = "Usuário não encontrado."
	msgWrongPassword = "Senha incorreta."
	msgEmailInUse    = "Este e-mail já está em uso."
	msgInvalidEmail  = "E-mail inválido."
)

var _ port.CredentialGateway = (*Gateway)(nil)

type account struct {
	UID          string    `json:"uid"`
	PasswordHash []byte    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Gateway struct {
	kv  port.KeyValueStore
	now func() time.Time

	// serializes read-modify-write of the account table
	mu    sync.Mutex
	users *notify.Broadcaster[*domain.Identity]
}

// New restores the previously signed-in user from kv, if any. A persisted user that
// cannot be decoded is logged and the gateway starts signed out.
func New(ctx context.Context, kv port.KeyValueStore, logger *slog.Logger) (*Gateway, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv is nil")
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
			logger.Warn("persisted user is not valid",
				slog.String("component", "devauth"),
				slog.Any("error", err))
		} else {
			current = &id
		}
	}

	return &Gateway{
		kv:    kv,
		now:   time.Now,
		users: notify.New(current, domain.CloneIdentity),
	}, nil
}

func (g *Gateway) Subscribe() (func(), <-chan *domain.Identity) {
	return g.users.Subscribe()
}

func (g *Gateway) Current() *domain.Identity {
	return g.users.Current()
}

func (g *Gateway) Subscribers() int {
	return g.users.Subscribers()
}

func (g *Gateway) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	email = normalizeEmail(email)

	g.mu.Lock()
	defer g.mu.Unlock()

	accounts, err := g.loadAccounts(ctx)
	if err != nil {
		return domain.Identity{}, domain.NewUnavailableError(domain.DefaultMessage, err)
	}

	acc, ok := accounts[email]
	if !ok {
		return domain.Identity{}, domain.NewRejectedError(msgUserNotFound, nil)
	}

	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return domain.Identity{}, domain.NewRejectedError(msgWrongPassword, nil)
	}

	return g.become(ctx, domain.Identity{UID: acc.UID, Email: email, Provider: ProviderPassword})
}

func (g *Gateway) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return domain.Identity{}, domain.NewRejectedError(msgInvalidEmail, nil)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	accounts, err := g.loadAccounts(ctx)
	if err != nil {
		return domain.Identity{}, domain.NewUnavailableError(domain.DefaultMessage, err)
	}

	if _, ok := accounts[email]; ok {
		return domain.Identity{}, domain.NewRejectedError(msgEmailInUse, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return domain.Identity{}, domain.NewRejectedError(domain.DefaultMessage, err)
	}

	acc := account{UID: uuid.NewString(), PasswordHash: hash, CreatedAt: g.now().UTC()}
	accounts[email] = acc

	if err := g.saveAccounts(ctx, accounts); err != nil {
		return domain.Identity{}, domain.NewUnavailableError(domain.DefaultMessage, err)
	}

	return g.become(ctx, domain.Identity{UID: acc.UID, Email: email, Provider: ProviderPassword})
}

func (g *Gateway) SignInAnonymously(ctx context.Context) (domain.Identity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.become(ctx, domain.Identity{UID: uuid.NewString(), Anonymous: true, Provider: ProviderAnonymous})
}

func (g *Gateway) SignOut(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.kv.Delete(ctx, userKey); err != nil {
		return domain.NewUnavailableError(domain.DefaultMessage, err)
	}

	g.users.Publish(nil)

	return nil
}

// Close ends every subscription.
func (g *Gateway) Close() {
	g.users.Close()
}

func (g *Gateway) become(ctx context.Context, id domain.Identity) (domain.Identity, error) {
	raw, err := json.Marshal(id)
	if err != nil {
		return domain.Identity{}, domain.NewUnavailableError(domain.DefaultMessage, err)
	}

	if err := g.kv.Set(ctx, userKey, raw); err != nil {
		return domain.Identity{}, domain.NewUnavailableError(domain.DefaultMessage, err)
	}

	g.users.Publish(&id)

	return id, nil
}

func (g *Gateway) loadAccounts(ctx context.Context) (map[string]account, error) {
	accounts := make(map[string]account)

	raw, ok, err := g.kv.Get(ctx, accountsKey)
	if err != nil {
		return nil, fmt.Errorf("kv.Get: %w", err)
	}
	if !ok {
		return accounts, nil
	}

	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return accounts, nil
}

func (g *Gateway) saveAccounts(ctx context.Context, accounts map[string]account) error {
	raw, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := g.kv.Set(ctx, accountsKey, raw); err != nil {
		return fmt.Errorf("kv.Set: %w", err)
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
