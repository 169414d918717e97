package store

import (
	"context"
	"sync"

	"recipe_backend/models"
)

// Memory is an in-process Store used by tests and the "memory" db driver.
// Transactions run against a copy of the data that replaces the live copy
// on commit; writes are serialized so no committed write is lost.
type Memory struct {
	serial sync.Mutex
	data   *memData
}

type memData struct {
	mu    sync.RWMutex
	state *memState
}

type memState struct {
	seq     map[string]int64
	users   map[int64]models.User
	recipes map[int64]models.Recipe
	attrs   map[models.Kind]map[int64]models.Attribute
	// links[kind][recipeID] is the recipe's association set.
	links map[models.Kind]map[int64]map[int64]struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: &memData{state: newMemState()}}
}

func newMemState() *memState {
	s := &memState{
		seq:     map[string]int64{},
		users:   map[int64]models.User{},
		recipes: map[int64]models.Recipe{},
		attrs:   map[models.Kind]map[int64]models.Attribute{},
		links:   map[models.Kind]map[int64]map[int64]struct{}{},
	}
	for _, k := range models.Kinds {
		s.attrs[k] = map[int64]models.Attribute{}
		s.links[k] = map[int64]map[int64]struct{}{}
	}
	return s
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.seq {
		c.seq[k] = v
	}
	for id, u := range s.users {
		c.users[id] = u
	}
	for id, r := range s.recipes {
		c.recipes[id] = r
	}
	for _, k := range models.Kinds {
		for id, a := range s.attrs[k] {
			c.attrs[k][id] = a
		}
		for rid, set := range s.links[k] {
			cs := make(map[int64]struct{}, len(set))
			for aid := range set {
				cs[aid] = struct{}{}
			}
			c.links[k][rid] = cs
		}
	}
	return c
}

func (s *memState) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// memConn is one view of the data. serial is nil inside a transaction,
// where RunInTx already holds it.
type memConn struct {
	d      *memData
	serial *sync.Mutex
}

func (c memConn) write() func() {
	if c.serial != nil {
		c.serial.Lock()
	}
	c.d.mu.Lock()
	return func() {
		c.d.mu.Unlock()
		if c.serial != nil {
			c.serial.Unlock()
		}
	}
}

func (c memConn) read() func() {
	c.d.mu.RLock()
	return c.d.mu.RUnlock
}

func (c memConn) Users() UserRepository           { return memUsers{c} }
func (c memConn) Recipes() RecipeRepository       { return memRecipes{c} }
func (c memConn) Attributes() AttributeRepository { return memAttributes{c} }

func (m *Memory) conn() memConn { return memConn{d: m.data, serial: &m.serial} }

func (m *Memory) Users() UserRepository           { return m.conn().Users() }
func (m *Memory) Recipes() RecipeRepository       { return m.conn().Recipes() }
func (m *Memory) Attributes() AttributeRepository { return m.conn().Attributes() }
func (m *Memory) Ping(ctx context.Context) error  { return ctx.Err() }
func (m *Memory) Close() error                    { return nil }

// RunInTx implements Store.
func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	m.serial.Lock()
	defer m.serial.Unlock()

	m.data.mu.RLock()
	snapshot := &memData{state: m.data.state.clone()}
	m.data.mu.RUnlock()

	if err := fn(ctx, memConn{d: snapshot}); err != nil {
		return err
	}

	m.data.mu.Lock()
	m.data.state = snapshot.state
	m.data.mu.Unlock()
	return nil
}
