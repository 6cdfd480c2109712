// Package memory provides the in-memory entity store behind the API.
//
// The store holds one optional Company, Users keyed by email, and
// Shareholders and Grants keyed by integer ID. Nothing is ever deleted, so
// IDs allocated by NextID are never reused.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/mmynk/fairshare/internal/models"
	"github.com/mmynk/fairshare/internal/storage"
)

// NextID returns max(existing keys) + 1, or 1 for an empty mapping.
func NextID[V any](m map[int]V) int {
	next := 0
	for id := range m {
		if id > next {
			next = id
		}
	}
	return next + 1
}

type state struct {
	company      *models.Company
	users        map[string]models.User
	shareholders map[int]models.Shareholder
	grants       map[int]models.Grant
}

func newState() state {
	return state{
		users:        make(map[string]models.User),
		shareholders: make(map[int]models.Shareholder),
		grants:       make(map[int]models.Grant),
	}
}

// Store is the in-memory entity store. A single mutex serializes every
// operation, so each Update runs to completion before the next starts.
type Store struct {
	mu    sync.RWMutex
	state state
}

// New creates an empty store.
func New() *Store {
	return &Store{state: newState()}
}

// Update runs fn with exclusive access to the store.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{st: &s.state, writable: true})
}

// View runs fn with shared read access. Writes through the Tx fail.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{st: &s.state})
}

// Export returns a deep copy of the full state.
func (s *Store) Export() storage.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := storage.Snapshot{
		Shareholders: cloneShareholders(s.state.shareholders),
		Users:        cloneUsers(s.state.users),
		Grants:       maps.Clone(s.state.grants),
	}
	if s.state.company != nil {
		c := s.state.company.Clone()
		snap.Company = &c
	}
	return snap
}

// Import replaces the full state with a deep copy of snap.
func (s *Store) Import(snap storage.Snapshot) {
	next := newState()
	for id, sh := range snap.Shareholders {
		sh.ID = id
		next.shareholders[id] = sh.Clone()
	}
	for email, u := range snap.Users {
		u.Email = email
		next.users[email] = u.Clone()
	}
	for id, g := range snap.Grants {
		g.ID = id
		next.grants[id] = g
	}
	if snap.Company != nil {
		c := snap.Company.Clone()
		next.company = &c
	}

	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// Counts reports how many records of each kind are stored.
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]int{
		"users":        len(s.state.users),
		"shareholders": len(s.state.shareholders),
		"grants":       len(s.state.grants),
	}
}

// GetUserByEmail returns the user registered with email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	var user *models.User
	err := s.View(func(tx *Tx) error {
		u, ok := tx.User(email)
		if !ok {
			return fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
		}
		user = &u
		return nil
	})
	return user, err
}

// CreateUser inserts a new user. Returns storage.ErrAlreadyExists if the
// email is taken.
func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	return s.Update(func(tx *Tx) error {
		if _, ok := tx.User(user.Email); ok {
			return fmt.Errorf("user %s: %w", user.Email, storage.ErrAlreadyExists)
		}
		return tx.PutUser(*user)
	})
}

// Tx gives access to the store's mappings inside Update or View.
// Every record returned is a copy.
type Tx struct {
	st       *state
	writable bool
}

func (tx *Tx) checkWritable() error {
	if !tx.writable {
		return fmt.Errorf("memory: write in read-only transaction")
	}
	return nil
}

// Company returns the company record, if one has been created.
func (tx *Tx) Company() (models.Company, bool) {
	if tx.st.company == nil {
		return models.Company{}, false
	}
	return tx.st.company.Clone(), true
}

// PutCompany replaces the company record.
func (tx *Tx) PutCompany(c models.Company) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	c = c.Clone()
	tx.st.company = &c
	return nil
}

// User returns the user registered with email.
func (tx *Tx) User(email string) (models.User, bool) {
	u, ok := tx.st.users[email]
	if !ok {
		return models.User{}, false
	}
	return u.Clone(), true
}

// PutUser inserts or replaces the user keyed by u.Email.
func (tx *Tx) PutUser(u models.User) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	tx.st.users[u.Email] = u.Clone()
	return nil
}

// Users returns every user keyed by email.
func (tx *Tx) Users() map[string]models.User {
	return cloneUsers(tx.st.users)
}

// Shareholder returns the shareholder with the given ID.
func (tx *Tx) Shareholder(id int) (models.Shareholder, bool) {
	sh, ok := tx.st.shareholders[id]
	if !ok {
		return models.Shareholder{}, false
	}
	return sh.Clone(), true
}

// PutShareholder inserts or replaces the shareholder keyed by sh.ID.
func (tx *Tx) PutShareholder(sh models.Shareholder) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	tx.st.shareholders[sh.ID] = sh.Clone()
	return nil
}

// Shareholders returns every shareholder keyed by ID.
func (tx *Tx) Shareholders() map[int]models.Shareholder {
	return cloneShareholders(tx.st.shareholders)
}

// ShareholderIDs returns the stored shareholder IDs in ascending order.
func (tx *Tx) ShareholderIDs() []int {
	return slices.Sorted(maps.Keys(tx.st.shareholders))
}

// Grant returns the grant with the given ID.
func (tx *Tx) Grant(id int) (models.Grant, bool) {
	g, ok := tx.st.grants[id]
	return g, ok
}

// PutGrant inserts or replaces the grant keyed by g.ID.
func (tx *Tx) PutGrant(g models.Grant) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	tx.st.grants[g.ID] = g
	return nil
}

// Grants returns every grant keyed by ID.
func (tx *Tx) Grants() map[int]models.Grant {
	return maps.Clone(tx.st.grants)
}

// NextShareholderID allocates the ID for the next shareholder.
func (tx *Tx) NextShareholderID() int {
	return NextID(tx.st.shareholders)
}

// NextGrantID allocates the ID for the next grant.
func (tx *Tx) NextGrantID() int {
	return NextID(tx.st.grants)
}

func cloneShareholders(in map[int]models.Shareholder) map[int]models.Shareholder {
	out := make(map[int]models.Shareholder, len(in))
	for id, sh := range in {
		out[id] = sh.Clone()
	}
	return out
}

func cloneUsers(in map[string]models.User) map[string]models.User {
	out := make(map[string]models.User, len(in))
	for email, u := range in {
		out[email] = u.Clone()
	}
	return out
}
