// Package session owns the signed-in identity and the device cart.
//
// A single goroutine holds the cart and applies every mutation in arrival order, so a mutation
// always sees the result of the one before it. The persisted snapshot is restored once at start;
// mutations requested while it is loading are held and applied on top of the restored cart.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nikolayk812/partyshop/internal/domain"
	"github.com/nikolayk812/partyshop/internal/metrics"
	"github.com/nikolayk812/partyshop/internal/notify"
	"github.com/nikolayk812/partyshop/internal/port"
)

var ErrClosed = errors.New("session manager is closed")

const (
	defaultSlowRestore  = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
)

type Options struct {
	Storage port.CartStorage
	Gateway port.CredentialGateway

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// SlowRestore is how long the initial read may take before a warning is logged.
	// The read is never cut short: mutations stay held until it resolves.
	SlowRestore time.Duration
	// WriteTimeout bounds a single snapshot write or delete.
	WriteTimeout time.Duration

	Now func() time.Time
}

type Manager struct {
	storage port.CartStorage
	gateway port.CredentialGateway
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	slowRestore time.Duration

	state     *notify.Broadcaster[State]
	persister *persister

	commands chan command
	ready    chan struct{}
	stop     chan struct{}
	done     chan struct{}

	cancelRestore context.CancelFunc
	restoreDone   chan struct{}
	unsubscribe   func()
	closeOnce     sync.Once

	// owned by the loop goroutine
	identity      *domain.Identity
	identityKnown bool
	cart          domain.Cart
	loading       bool
	version       uint64
	held          []command
}

type commandKind int

const (
	cmdAdd commandKind = iota + 1
	cmdRemove
	cmdClear
	cmdFlush
)

func (k commandKind) String() string {
	switch k {
	case cmdAdd:
		return "add"
	case cmdRemove:
		return "remove"
	case cmdClear:
		return "clear"
	default:
		return "flush"
	}
}

type command struct {
	kind  commandKind
	item  domain.CartItem
	id    string
	reply chan result
}

type result struct {
	added   bool
	removed int
	barrier <-chan struct{}
}

type restoreResult struct {
	snapshot []byte
	ok       bool
	err      error
}

// NewManager starts the manager: it subscribes to identity changes and begins restoring the cart.
// Close must be called to release it.
func NewManager(opts Options) (*Manager, error) {
	if opts.Storage == nil {
		return nil, fmt.Errorf("storage is nil")
	}
	if opts.Gateway == nil {
		return nil, fmt.Errorf("gateway is nil")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SlowRestore <= 0 {
		opts.SlowRestore = defaultSlowRestore
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger.With(slog.String("component", "session"))

	m := &Manager{
		storage: opts.Storage,
		gateway: opts.Gateway,
		logger:  logger,
		metrics: opts.Metrics,
		now:     opts.Now,

		slowRestore: opts.SlowRestore,

		state:     notify.New(State{Cart: domain.Cart{}, Loading: true}, cloneState),
		persister: newPersister(opts.Storage, logger, opts.Metrics, opts.WriteTimeout),

		commands:    make(chan command),
		ready:       make(chan struct{}),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		restoreDone: make(chan struct{}),

		cart:    domain.Cart{},
		loading: true,
	}

	unsubscribe, identities := opts.Gateway.Subscribe()
	m.unsubscribe = unsubscribe

	// only Close cancels the restore
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelRestore = cancel
	restored := m.restore(ctx)

	go m.run(restored, identities)

	return m, nil
}

func (m *Manager) restore(ctx context.Context) <-chan restoreResult {
	ch := make(chan restoreResult, 1)

	go func() {
		defer close(m.restoreDone)

		snapshot, ok, err := m.storage.ReadCart(ctx)
		ch <- restoreResult{snapshot: snapshot, ok: ok, err: err}
	}()

	return ch
}

func (m *Manager) run(restored <-chan restoreResult, identities <-chan *domain.Identity) {
	defer close(m.done)

	slow := time.NewTimer(m.slowRestore)
	defer slow.Stop()
	slowC := slow.C

	for {
		select {
		case <-m.stop:
			return

		case <-slowC:
			slowC = nil
			m.logger.Warn("cart restore is slow", slog.Duration("elapsed", m.slowRestore))

		case res := <-restored:
			restored = nil
			slowC = nil
			m.cart = m.adopt(res)
			m.loading = false

			held := m.held
			m.held = nil
			for _, cmd := range held {
				m.apply(cmd)
			}

			m.publish()
			m.markReady()

		case id, ok := <-identities:
			if !ok {
				identities = nil
				m.identityKnown = true
				m.markReady()
				continue
			}
			first := !m.identityKnown
			m.identityKnown = true

			if !sameIdentity(m.identity, id) {
				m.identity = id
				m.metrics.IdentityChanged(id != nil)
				m.publish()
			}
			if first {
				m.markReady()
			}

		case cmd := <-m.commands:
			if m.loading {
				m.held = append(m.held, cmd)
				continue
			}
			if m.apply(cmd) {
				m.publish()
			}
		}
	}
}

// adopt turns the restore outcome into the starting cart. Failures are logged and start from empty.
func (m *Manager) adopt(res restoreResult) domain.Cart {
	if res.err != nil {
		m.metrics.CartRestored(metrics.ResultError)
		m.logger.Error("cart restore failed", slog.Any("error", res.err))
		return domain.Cart{}
	}

	if !res.ok {
		m.metrics.CartRestored(metrics.ResultNotFound)
		return domain.Cart{}
	}

	var cart domain.Cart
	if err := json.Unmarshal(res.snapshot, &cart); err != nil {
		m.metrics.CartRestored(metrics.ResultInvalid)
		m.logger.Error("cart snapshot is not valid", slog.Any("error", err))
		return domain.Cart{}
	}

	m.metrics.CartRestored(metrics.ResultOK)
	m.logger.Debug("cart restored", slog.Int("items", len(cart)))

	return cart.Clone()
}

// apply runs cmd against the current cart and replies. It reports whether the cart changed.
func (m *Manager) apply(cmd command) bool {
	var (
		res     result
		changed bool
	)

	switch cmd.kind {
	case cmdAdd:
		item := cmd.item
		if item.AddedAt.IsZero() {
			item.AddedAt = m.now().UTC()
		}
		m.cart, res.added = m.cart.With(item)
		changed = res.added
		if changed {
			m.write()
		}

	case cmdRemove:
		m.cart, res.removed = m.cart.Without(cmd.id)
		changed = res.removed > 0
		if changed {
			m.write()
		}

	case cmdClear:
		changed = len(m.cart) > 0
		m.cart = domain.Cart{}
		m.persister.submit(persistOp{kind: persistDelete})

	case cmdFlush:
		res.barrier = m.persister.barrier()
	}

	if changed {
		m.metrics.CartMutated(cmd.kind.String(), len(m.cart))
	}

	cmd.reply <- res

	return changed
}

func (m *Manager) write() {
	snapshot, err := json.Marshal(m.cart)
	if err != nil {
		m.logger.Error("cart snapshot encoding failed", slog.Any("error", err))
		return
	}

	m.persister.submit(persistOp{kind: persistWrite, snapshot: snapshot})
}

// markReady closes ready once the cart is restored and the gateway has replayed the current identity.
func (m *Manager) markReady() {
	if m.loading || !m.identityKnown {
		return
	}
	select {
	case <-m.ready:
	default:
		close(m.ready)
	}
}

func sameIdentity(a, b *domain.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UID == b.UID &&
		a.Email == b.Email &&
		a.Anonymous == b.Anonymous &&
		a.Provider == b.Provider &&
		a.IDToken == b.IDToken &&
		a.RefreshToken == b.RefreshToken &&
		a.ExpiresAt.Equal(b.ExpiresAt)
}

func (m *Manager) publish() {
	m.version++
	m.state.Publish(State{
		Identity: m.identity,
		Cart:     m.cart,
		Loading:  m.loading,
		Version:  m.version,
	})
}

func (m *Manager) do(ctx context.Context, cmd command) (result, error) {
	cmd.reply = make(chan result, 1)

	select {
	case m.commands <- cmd:
	case <-m.done:
		return result{}, ErrClosed
	case <-ctx.Done():
		return result{}, ctx.Err()
	}

	// once accepted the command is applied even if ctx ends first
	select {
	case res := <-cmd.reply:
		return res, nil
	case <-m.done:
		return result{}, ErrClosed
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

// AddToCart appends item unless an item with the same ID is already in the cart.
// added is false for such a duplicate. Called while the cart is loading, it returns once the
// restored cart is known.
func (m *Manager) AddToCart(ctx context.Context, item domain.CartItem) (added bool, err error) {
	if item.ID == "" {
		return false, fmt.Errorf("item id is empty")
	}

	res, err := m.do(ctx, command{kind: cmdAdd, item: item})
	if err != nil {
		return false, err
	}

	return res.added, nil
}

// RemoveFromCart drops every item with the given ID. Removing an absent ID is a no-op.
func (m *Manager) RemoveFromCart(ctx context.Context, id string) (removed int, err error) {
	res, err := m.do(ctx, command{kind: cmdRemove, id: id})
	if err != nil {
		return 0, err
	}

	return res.removed, nil
}

// ClearCart empties the cart and deletes the persisted snapshot.
func (m *Manager) ClearCart(ctx context.Context) error {
	_, err := m.do(ctx, command{kind: cmdClear})
	return err
}

// Logout ends the session through the gateway. The cart belongs to the device and is kept.
// Failures are logged and otherwise ignored; the identity only changes when the gateway says so.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.gateway.SignOut(ctx); err != nil {
		m.logger.Error("sign out failed", slog.Any("error", err))
	}
}

// Flush waits until the restore has settled and every snapshot change so far reached storage,
// successfully or not.
func (m *Manager) Flush(ctx context.Context) error {
	res, err := m.do(ctx, command{kind: cmdFlush})
	if err != nil {
		return err
	}

	select {
	case <-res.barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready is closed once the persisted cart has been restored and the signed-in identity is known.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

func (m *Manager) Snapshot() State {
	return m.state.Current()
}

func (m *Manager) Cart() domain.Cart {
	return m.Snapshot().Cart
}

func (m *Manager) Identity() *domain.Identity {
	return m.Snapshot().Identity
}

func (m *Manager) Loading() bool {
	return m.Snapshot().Loading
}

// Subscribe delivers the current state right away and then the latest state after every change.
func (m *Manager) Subscribe() (unsubscribe func(), updates <-chan State) {
	return m.state.Subscribe()
}

// Close stops the manager. A snapshot change still pending is written before it returns.
// Calls after Close fail with ErrClosed.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.unsubscribe()
		m.cancelRestore()
		close(m.stop)
		<-m.done
		<-m.restoreDone

		m.persister.close()
		m.state.Close()
	})
}
