package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/processing/links"
)

// LinksRepository keeps links in a map guarded by one mutex. Every method is
// atomic with respect to the others.
type LinksRepository struct {
	mu    sync.RWMutex
	byKey map[string]*links.Link
	seq   int64
	order map[string]int64
}

func NewLinksRepository() *LinksRepository {
	return &LinksRepository{
		byKey: make(map[string]*links.Link),
		order: make(map[string]int64),
	}
}

func (r *LinksRepository) ExistsByKey(_ context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKey[key]
	return ok, nil
}

func (r *LinksRepository) Insert(_ context.Context, link *links.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[link.Key]; ok {
		return links.ErrKeyTaken
	}
	r.byKey[link.Key] = cloneLink(link)
	r.seq++
	r.order[link.Key] = r.seq
	return nil
}

func (r *LinksRepository) FindByKey(_ context.Context, key string) (*links.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.byKey[key]
	if !ok {
		return nil, links.ErrNotFound
	}
	return cloneLink(l), nil
}

func (r *LinksRepository) ResolveAndIncClick(_ context.Context, key string, at time.Time) (*links.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byKey[key]
	if !ok || !l.Active {
		return nil, links.ErrNotFound
	}
	if l.ExpiredAt(at) {
		return nil, links.ErrExpired
	}
	l.ClickCount++
	return cloneLink(l), nil
}

func (r *LinksRepository) Update(_ context.Context, link *links.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byKey[link.Key]
	if !ok {
		return links.ErrNotFound
	}
	l.TargetURL = link.TargetURL
	l.Active = link.Active
	l.ExpiresAt = copyTime(link.ExpiresAt)
	l.UpdatedAt = link.UpdatedAt
	return nil
}

func (r *LinksRepository) DeleteByKey(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[key]; !ok {
		return false, nil
	}
	delete(r.byKey, key)
	delete(r.order, key)
	return true, nil
}

func (r *LinksRepository) ListByOwner(ctx context.Context, ownerID string, page links.Page) ([]links.Link, error) {
	return r.List(ctx, links.ListFilter{OwnerID: ownerID, Page: page})
}

func (r *LinksRepository) List(_ context.Context, filter links.ListFilter) ([]links.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	searchOwners := make(map[string]struct{}, len(filter.SearchOwnerIDs))
	for _, id := range filter.SearchOwnerIDs {
		searchOwners[id] = struct{}{}
	}

	matched := make([]*links.Link, 0, len(r.byKey))
	for _, l := range r.byKey {
		if filter.OwnerID != "" && l.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Active != nil && l.Active != *filter.Active {
			continue
		}
		if search != "" && !matchesSearch(l, search, searchOwners) {
			continue
		}
		matched = append(matched, l)
	}

	// newest first; insertion order breaks ties
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return r.order[matched[i].Key] > r.order[matched[j].Key]
	})

	page := filter.Page.Normalize()
	if page.Offset >= len(matched) {
		return []links.Link{}, nil
	}
	end := min(page.Offset+page.Limit, len(matched))

	out := make([]links.Link, 0, end-page.Offset)
	for _, l := range matched[page.Offset:end] {
		out = append(out, *cloneLink(l))
	}
	return out, nil
}

func matchesSearch(l *links.Link, search string, owners map[string]struct{}) bool {
	if strings.Contains(strings.ToLower(l.Key), search) || strings.Contains(strings.ToLower(l.TargetURL), search) {
		return true
	}
	_, ok := owners[l.OwnerID]
	return ok
}

func cloneLink(l *links.Link) *links.Link {
	c := *l
	c.ExpiresAt = copyTime(l.ExpiresAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
