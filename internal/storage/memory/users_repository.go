package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/IgorGrieder/shortlinks/internal/processing/users"
)

type UsersRepository struct {
	mu         sync.RWMutex
	byID       map[string]*users.User
	byUsername map[string]*users.User
}

func NewUsersRepository() *UsersRepository {
	return &UsersRepository{
		byID:       make(map[string]*users.User),
		byUsername: make(map[string]*users.User),
	}
}

func (r *UsersRepository) Insert(_ context.Context, user *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[user.Username]; ok {
		return users.ErrUsernameTaken
	}
	c := *user
	r.byID[c.ID] = &c
	r.byUsername[c.Username] = &c
	return nil
}

func (r *UsersRepository) FindByUsername(_ context.Context, username string) (*users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byUsername[username]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *UsersRepository) FindByID(_ context.Context, id string) (*users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *UsersRepository) SearchIDsByUsername(_ context.Context, query string, limit int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query = strings.ToLower(query)
	names := make([]string, 0)
	for name := range r.byUsername {
		if strings.Contains(strings.ToLower(name), query) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		ids = append(ids, r.byUsername[name].ID)
	}
	return ids, nil
}
