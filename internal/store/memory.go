package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"paper-trader/internal/model"
)

type memoryState struct {
	accounts  map[string]*model.Account
	hashes    map[string]string // account id -> password hash
	order     []string          // account ids in registration order
	positions map[string]map[string]*model.Position
	trades    []model.Trade
	settings  model.GameSettings
}

// Memory implements Store with in-memory maps. Used for testing and
// development. Atomic applies mutations to a deep copy and swaps it in on
// success, so a failed call leaves no partial state.
type Memory struct {
	mu     sync.RWMutex
	parent *Memory // set on the transactional view handed to Atomic fns
	state  *memoryState
}

func NewMemory(settings model.GameSettings) *Memory {
	return &Memory{state: &memoryState{
		accounts:  make(map[string]*model.Account),
		hashes:    make(map[string]string),
		positions: make(map[string]map[string]*model.Position),
		settings:  settings,
	}}
}

func (s *memoryState) clone() *memoryState {
	next := &memoryState{
		accounts:  make(map[string]*model.Account, len(s.accounts)),
		hashes:    make(map[string]string, len(s.hashes)),
		order:     append([]string(nil), s.order...),
		positions: make(map[string]map[string]*model.Position, len(s.positions)),
		trades:    append([]model.Trade(nil), s.trades...),
		settings:  s.settings,
	}
	for id, acc := range s.accounts {
		copy := *acc
		next.accounts[id] = &copy
	}
	for id, hash := range s.hashes {
		next.hashes[id] = hash
	}
	for id, book := range s.positions {
		nb := make(map[string]*model.Position, len(book))
		for sym, pos := range book {
			copy := *pos
			nb[sym] = &copy
		}
		next.positions[id] = nb
	}
	return next
}

func (m *Memory) Atomic(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft := &Memory{parent: m, state: m.state.clone()}
	if err := fn(draft); err != nil {
		return err
	}
	m.state = draft.state
	return nil
}

// lock takes the read lock only on the root store; transactional views
// already run under the root's write lock.
func (m *Memory) lock() func() {
	if m.parent != nil {
		return func() {}
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

func (m *Memory) CreateAccount(_ context.Context, acc *model.Account, passwordHash string) error {
	if m.parent == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	for _, existing := range m.state.accounts {
		if existing.Username == acc.Username || existing.Email == acc.Email {
			return ErrDuplicate
		}
	}
	copy := *acc
	m.state.accounts[acc.ID] = &copy
	m.state.hashes[acc.ID] = passwordHash
	m.state.order = append(m.state.order, acc.ID)
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id string) (*model.Account, error) {
	defer m.lock()()
	acc, ok := m.state.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *acc
	return &copy, nil
}

func (m *Memory) GetCredentials(_ context.Context, username string) (string, string, error) {
	defer m.lock()()
	for id, acc := range m.state.accounts {
		if acc.Username == username {
			return id, m.state.hashes[id], nil
		}
	}
	return "", "", ErrNotFound
}

func (m *Memory) UpdateAccount(_ context.Context, acc *model.Account) error {
	if m.parent == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	if _, ok := m.state.accounts[acc.ID]; !ok {
		return ErrNotFound
	}
	copy := *acc
	m.state.accounts[acc.ID] = &copy
	return nil
}

func (m *Memory) TouchLastLogin(_ context.Context, id string) error {
	if m.parent == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	acc, ok := m.state.accounts[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	acc.LastLogin = &now
	return nil
}

func (m *Memory) ListAccounts(_ context.Context) ([]model.Account, error) {
	defer m.lock()()
	out := make([]model.Account, 0, len(m.state.order))
	for _, id := range m.state.order {
		if acc, ok := m.state.accounts[id]; ok {
			out = append(out, *acc)
		}
	}
	return out, nil
}

func (m *Memory) GetPosition(_ context.Context, accountID, symbol string) (*model.Position, error) {
	defer m.lock()()
	pos, ok := m.state.positions[accountID][symbol]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *pos
	return &copy, nil
}

func (m *Memory) UpsertPosition(_ context.Context, pos *model.Position) error {
	if m.parent == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	book, ok := m.state.positions[pos.AccountID]
	if !ok {
		book = make(map[string]*model.Position)
		m.state.positions[pos.AccountID] = book
	}
	copy := *pos
	book[pos.Symbol] = &copy
	return nil
}

func (m *Memory) DeletePosition(_ context.Context, accountID, symbol string) error {
	if m.parent == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	delete(m.state.positions[accountID], symbol)
	return nil
}

func (m *Memory) ListPositions(_ context.Context, accountID string) ([]model.Position, error) {
	defer m.lock()()
	book := m.state.positions[accountID]
	out := make([]model.Position, 0, len(book))
	for _, pos := range book {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Memory) InsertTrade(_ context.Context, trade *model.Trade) error {
	if m.parent == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	m.state.trades = append(m.state.trades, *trade)
	return nil
}

func (m *Memory) ListTrades(_ context.Context, accountID string) ([]model.Trade, error) {
	defer m.lock()()
	var out []model.Trade
	for i := len(m.state.trades) - 1; i >= 0; i-- {
		if m.state.trades[i].AccountID == accountID {
			out = append(out, m.state.trades[i])
		}
	}
	return out, nil
}

func (m *Memory) GetSettings(_ context.Context) (*model.GameSettings, error) {
	defer m.lock()()
	gs := m.state.settings
	return &gs, nil
}

// DefaultTestSettings returns the stock game configuration used across
// tests: 100000.00 starting cash and a 9.99 flat commission.
func DefaultTestSettings() model.GameSettings {
	return model.GameSettings{
		StartingCash:     decimal.RequireFromString("100000.00"),
		Commission:       decimal.RequireFromString("9.99"),
		GameDurationDays: 30,
	}
}
