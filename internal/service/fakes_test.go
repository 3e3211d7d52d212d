package service

import (
	"context"
	"errors"
	"io"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/iliyamo/theater-management/internal/model"
	"github.com/iliyamo/theater-management/internal/queue"
	"github.com/iliyamo/theater-management/internal/repository"
)

func quietLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetOutput(io.Discard)
	return log, hook
}

func ptr(v int64) *int64 { return &v }

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
	pw     map[int64]string
	roles  map[string]bool
	err    error
}

func newMemUsers(roles ...string) *memUsers {
	m := &memUsers{users: map[int64]*model.User{}, pw: map[int64]string{}, roles: map[string]bool{}}
	for _, r := range roles {
		m.roles[r] = true
	}
	return m
}

func (m *memUsers) add(name, password string, roles ...string) *model.User {
	u, err := m.Create(context.Background(), name, password, roles)
	if err != nil {
		panic(err)
	}
	return u
}

func (m *memUsers) FindByUsername(_ context.Context, name string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.UserName == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) CheckPassword(u *model.User, password string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pw[u.ID] == password
}

func (m *memUsers) Create(_ context.Context, name, password string, roles []string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UserName == name {
			return nil, repository.ErrDuplicate
		}
	}
	for _, r := range roles {
		if !m.roles[r] {
			return nil, repository.ErrUnknownRole
		}
	}
	m.nextID++
	sorted := append([]string(nil), roles...)
	sort.Strings(sorted)
	u := &model.User{ID: m.nextID, UserName: name, Roles: sorted}
	m.users[u.ID] = u
	m.pw[u.ID] = password
	cp := *u
	return &cp, nil
}

func (m *memUsers) List(context.Context) ([]model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Role
	for name := range m.roles {
		out = append(out, model.Role{ID: int64(len(out) + 1), Name: name})
	}
	return out, nil
}

type memTheaters struct {
	mu       sync.Mutex
	nextID   int64
	theaters map[int64]model.Theater
	writes   int
	err      error
}

func newMemTheaters() *memTheaters {
	return &memTheaters{theaters: map[int64]model.Theater{}}
}

func (m *memTheaters) seed(t model.Theater) model.Theater {
	_ = m.Create(context.Background(), &t)
	m.writes = 0
	return t
}

func (m *memTheaters) All(context.Context) iter.Seq2[model.Theater, error] {
	return func(yield func(model.Theater, error) bool) {
		m.mu.Lock()
		if m.err != nil {
			err := m.err
			m.mu.Unlock()
			yield(model.Theater{}, err)
			return
		}
		ids := make([]int64, 0, len(m.theaters))
		for id := range m.theaters {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		list := make([]model.Theater, 0, len(ids))
		for _, id := range ids {
			list = append(list, m.theaters[id])
		}
		m.mu.Unlock()
		for _, t := range list {
			if !yield(t, nil) {
				return
			}
		}
	}
}

func (m *memTheaters) GetByID(_ context.Context, id int64) (*model.Theater, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.theaters[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (m *memTheaters) Create(_ context.Context, t *model.Theater) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	t.ID = m.nextID
	m.theaters[t.ID] = *t
	m.writes++
	return nil
}

func (m *memTheaters) Update(_ context.Context, t *model.Theater) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.theaters[t.ID] = *t
	m.writes++
	return nil
}

func (m *memTheaters) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.theaters[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.theaters, id)
	m.writes++
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*memSession
	extendErr error
}

type memSession struct {
	userID  int64
	exp     time.Time
	revoked bool
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*memSession{}}
}

func (m *memSessions) Create(_ context.Context, userID int64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[hash] = &memSession{userID: userID, exp: exp}
	return nil
}

func (m *memSessions) Validate(_ context.Context, hash string) (int64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[hash]
	if !ok || s.revoked {
		return 0, time.Time{}, repository.ErrNotFound
	}
	return s.userID, s.exp, nil
}

func (m *memSessions) Extend(_ context.Context, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.extendErr != nil {
		return m.extendErr
	}
	if s, ok := m.sessions[hash]; ok {
		s.exp = exp
	}
	return nil
}

func (m *memSessions) Revoke(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[hash]; ok {
		s.revoked = true
	}
	return nil
}

func (m *memSessions) active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if !s.revoked {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.TheaterEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.TheaterEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errStore = errors.New("store unavailable")
