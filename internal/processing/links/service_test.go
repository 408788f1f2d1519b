package links

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// --- Hand-written mocks ---

type mockLinkRepo struct {
	existsFn      func(ctx context.Context, key string) (bool, error)
	insertFn      func(ctx context.Context, link *Link) error
	findByKeyFn   func(ctx context.Context, key string) (*Link, error)
	resolveFn     func(ctx context.Context, key string, at time.Time) (*Link, error)
	updateFn      func(ctx context.Context, link *Link) error
	deleteByKeyFn func(ctx context.Context, key string) (bool, error)
	listByOwnerFn func(ctx context.Context, ownerID string, page Page) ([]Link, error)
	listFn        func(ctx context.Context, filter ListFilter) ([]Link, error)
}

func (m *mockLinkRepo) ExistsByKey(ctx context.Context, key string) (bool, error) {
	return m.existsFn(ctx, key)
}
func (m *mockLinkRepo) Insert(ctx context.Context, link *Link) error {
	return m.insertFn(ctx, link)
}
func (m *mockLinkRepo) FindByKey(ctx context.Context, key string) (*Link, error) {
	return m.findByKeyFn(ctx, key)
}
func (m *mockLinkRepo) ResolveAndIncClick(ctx context.Context, key string, at time.Time) (*Link, error) {
	return m.resolveFn(ctx, key, at)
}
func (m *mockLinkRepo) Update(ctx context.Context, link *Link) error {
	return m.updateFn(ctx, link)
}
func (m *mockLinkRepo) DeleteByKey(ctx context.Context, key string) (bool, error) {
	return m.deleteByKeyFn(ctx, key)
}
func (m *mockLinkRepo) ListByOwner(ctx context.Context, ownerID string, page Page) ([]Link, error) {
	return m.listByOwnerFn(ctx, ownerID, page)
}
func (m *mockLinkRepo) List(ctx context.Context, filter ListFilter) ([]Link, error) {
	return m.listFn(ctx, filter)
}

type mockStatsRepo struct {
	incDailyFn    func(ctx context.Context, key string, at time.Time) error
	getDailyFn    func(ctx context.Context, key string, from, to time.Time) ([]DailyCount, error)
	deleteByKeyFn func(ctx context.Context, key string) error
}

func (m *mockStatsRepo) IncDaily(ctx context.Context, key string, at time.Time) error {
	if m.incDailyFn == nil {
		return nil
	}
	return m.incDailyFn(ctx, key, at)
}
func (m *mockStatsRepo) GetDaily(ctx context.Context, key string, from, to time.Time) ([]DailyCount, error) {
	return m.getDailyFn(ctx, key, from, to)
}
func (m *mockStatsRepo) DeleteByKey(ctx context.Context, key string) error {
	return m.deleteByKeyFn(ctx, key)
}

type mockKeys struct {
	keys []string
	idx  int
}

func (m *mockKeys) Generate(context.Context) (string, error) {
	if m.idx >= len(m.keys) {
		return "", errors.New("no more keys")
	}
	k := m.keys[m.idx]
	m.idx++
	return k, nil
}

type mockClicks struct {
	recordFn func(ctx context.Context, key string, at time.Time) error
}

func (m *mockClicks) RecordClick(ctx context.Context, key string, at time.Time) error {
	return m.recordFn(ctx, key, at)
}

type mockQR struct {
	content string
	size    int
}

func (m *mockQR) RenderPNG(content string, size int) ([]byte, error) {
	m.content = content
	m.size = size
	return []byte("png"), nil
}

var testNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestService(lr *mockLinkRepo, sr *mockStatsRepo, kg *mockKeys, opts Options) *Service {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://sho.rt/"
	}
	svc := NewService(lr, sr, kg, opts)
	svc.now = func() time.Time { return testNow }
	return svc
}

func ownedBy(owner string) *mockLinkRepo {
	return &mockLinkRepo{
		findByKeyFn: func(_ context.Context, key string) (*Link, error) {
			return &Link{Key: key, OwnerID: owner, TargetURL: "https://example.com", Active: true}, nil
		},
	}
}

// --- Tests for validateAndNormalizeURL ---

func TestValidateAndNormalizeURL(t *testing.T) {
	long := "https://example.com/" + string(bytes.Repeat([]byte("a"), MaxURLLength))

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"valid https", "https://example.com/path", "https://example.com/path", false},
		{"valid http", "http://example.com", "http://example.com", false},
		{"strips fragment", "https://example.com/page#section", "https://example.com/page", false},
		{"empty string", "", "", true},
		{"bad scheme ftp", "ftp://example.com", "", true},
		{"no scheme", "example.com", "", true},
		{"missing host", "https://", "", true},
		{"too long", long, "", true},
		{"too long once escaped", "http://a.com/" + strings.Repeat(" ", 2000) + "x", "", true},
		{"escaped within limit", "https://example.com/a b", "https://example.com/a%20b", false},
		{"whitespace trimmed", "  https://example.com  ", "https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateAndNormalizeURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	input := time.Date(2025, 6, 15, 14, 30, 45, 123, time.UTC)
	got := dateOnly(input)
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("dateOnly(%v) = %v, want %v", input, got, want)
	}
}

func TestLinkExpiredAt(t *testing.T) {
	exp := testNow
	l := &Link{ExpiresAt: &exp}

	if l.ExpiredAt(testNow.Add(-time.Second)) {
		t.Error("link should not be expired before its expiry")
	}
	if !l.ExpiredAt(testNow) {
		t.Error("link should be expired at its expiry")
	}
	if (&Link{}).ExpiredAt(testNow) {
		t.Error("link without expiry never expires")
	}
}

// --- CreateLink ---

func TestCreateLink_HappyPath(t *testing.T) {
	var inserted *Link
	lr := &mockLinkRepo{
		insertFn: func(_ context.Context, l *Link) error { inserted = l; return nil },
	}

	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{keys: []string{"abc123"}}, Options{})

	link, err := svc.CreateLink(context.Background(), CreateLinkInput{TargetURL: "https://example.com", OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if link.Key != "abc123" {
		t.Errorf("got key %q, want %q", link.Key, "abc123")
	}
	if link.ClickCount != 0 || !link.Active {
		t.Errorf("new link should be active with zero clicks, got %+v", link)
	}
	if link.OwnerID != "u1" || !link.CreatedAt.Equal(testNow) {
		t.Errorf("unexpected owner/createdAt: %+v", link)
	}
	if inserted != link {
		t.Error("expected the returned link to be the inserted one")
	}
	if got := svc.ShortURL(link.Key); got != "http://sho.rt/abc123" {
		t.Errorf("got short url %q", got)
	}
}

func TestCreateLink_InvalidURL(t *testing.T) {
	svc := newTestService(&mockLinkRepo{}, &mockStatsRepo{}, &mockKeys{}, Options{})

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{TargetURL: "not-a-url"})
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got: %v", err)
	}
}

func TestCreateLink_PastExpiry(t *testing.T) {
	svc := newTestService(&mockLinkRepo{}, &mockStatsRepo{}, &mockKeys{}, Options{})

	past := testNow.Add(-time.Hour)
	_, err := svc.CreateLink(context.Background(), CreateLinkInput{TargetURL: "https://example.com", ExpiresAt: &past})
	if !errors.Is(err, ErrInvalidExpiry) {
		t.Fatalf("expected ErrInvalidExpiry, got: %v", err)
	}
}

func TestCreateLink_KeyCollisionRetries(t *testing.T) {
	attempts := 0
	lr := &mockLinkRepo{
		insertFn: func(_ context.Context, _ *Link) error {
			attempts++
			if attempts <= 2 {
				return ErrKeyTaken
			}
			return nil
		},
	}

	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{keys: []string{"k1", "k2", "k3"}}, Options{})

	link, err := svc.CreateLink(context.Background(), CreateLinkInput{TargetURL: "https://example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if link.Key != "k3" {
		t.Errorf("got key %q, want %q", link.Key, "k3")
	}
	if attempts != 3 {
		t.Errorf("expected 3 insert attempts, got %d", attempts)
	}
}

func TestCreateLink_AllRetriesExhausted(t *testing.T) {
	lr := &mockLinkRepo{
		insertFn: func(_ context.Context, _ *Link) error { return ErrKeyTaken },
	}
	keys := make([]string, 3)
	for i := range keys {
		keys[i] = "dup"
	}

	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{keys: keys}, Options{InsertAttempts: 3})

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{TargetURL: "https://example.com"})
	if !errors.Is(err, ErrKeyTaken) {
		t.Fatalf("expected ErrKeyTaken after exhausting retries, got: %v", err)
	}
}

func TestCreateLink_GeneratorErrorSurfaces(t *testing.T) {
	svc := newTestService(&mockLinkRepo{}, &mockStatsRepo{}, &mockKeys{}, Options{})

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{TargetURL: "https://example.com"})
	if err == nil {
		t.Fatal("expected generator error")
	}
}

func TestCreateLink_CustomKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		exists  bool
		wantErr error
	}{
		{"valid", "myKey42", false, nil},
		{"max length", "abcdefghij", false, nil},
		{"too long", "abcdefghijk", false, ErrInvalidKey},
		{"dash", "my-key", false, ErrInvalidKey},
		{"non ascii", "clé", false, ErrInvalidKey},
		{"reserved", "api", false, ErrInvalidKey},
		{"reserved any case", "Health", false, ErrInvalidKey},
		{"taken", "taken", true, ErrKeyTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inserted := false
			lr := &mockLinkRepo{
				existsFn: func(_ context.Context, _ string) (bool, error) { return tt.exists, nil },
				insertFn: func(_ context.Context, _ *Link) error { inserted = true; return nil },
			}
			svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{})

			link, err := svc.CreateLink(context.Background(), CreateLinkInput{TargetURL: "https://example.com", CustomKey: tt.key})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got: %v", tt.wantErr, err)
				}
				if inserted {
					t.Error("rejected key must not be inserted")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if link.Key != tt.key {
				t.Errorf("got key %q, want %q", link.Key, tt.key)
			}
		})
	}
}

func TestCreateLink_CustomKeyConflictNotRetried(t *testing.T) {
	attempts := 0
	lr := &mockLinkRepo{
		existsFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		insertFn: func(_ context.Context, _ *Link) error { attempts++; return ErrKeyTaken },
	}
	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{keys: []string{"gen1"}}, Options{})

	_, err := svc.CreateLink(context.Background(), CreateLinkInput{TargetURL: "https://example.com", CustomKey: "mine"})
	if !errors.Is(err, ErrKeyTaken) {
		t.Fatalf("expected ErrKeyTaken, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 insert attempt, got %d", attempts)
	}
}

// --- Resolve / RecordClick ---

func TestResolve_InvalidKeyShortCircuits(t *testing.T) {
	svc := newTestService(&mockLinkRepo{}, &mockStatsRepo{}, &mockKeys{}, Options{})

	for _, key := range []string{"", "favicon.ico", "a/b", string(bytes.Repeat([]byte("a"), MaxKeyLength+1))} {
		if _, err := svc.Resolve(context.Background(), key); !errors.Is(err, ErrNotFound) {
			t.Errorf("key %q: expected ErrNotFound, got: %v", key, err)
		}
	}
}

func TestResolve_DelegatesToRepo(t *testing.T) {
	want := &Link{Key: "xyz", TargetURL: "https://example.com", ClickCount: 1}
	var gotAt time.Time
	lr := &mockLinkRepo{
		resolveFn: func(_ context.Context, _ string, at time.Time) (*Link, error) {
			gotAt = at
			return want, nil
		},
	}

	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{})

	got, err := svc.Resolve(context.Background(), "xyz")
	if err != nil {
		t.Fatal(err)
	}
	if got.TargetURL != want.TargetURL {
		t.Errorf("got URL %q, want %q", got.TargetURL, want.TargetURL)
	}
	if !gotAt.Equal(testNow) {
		t.Errorf("expected resolve time %v, got %v", testNow, gotAt)
	}
}

func TestResolve_PropagatesExpired(t *testing.T) {
	lr := &mockLinkRepo{
		resolveFn: func(context.Context, string, time.Time) (*Link, error) { return nil, ErrExpired },
	}
	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{})

	if _, err := svc.Resolve(context.Background(), "old"); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got: %v", err)
	}
}

func TestRecordClick_DefaultsToStats(t *testing.T) {
	var gotKey string
	sr := &mockStatsRepo{
		incDailyFn: func(_ context.Context, key string, _ time.Time) error {
			gotKey = key
			return nil
		},
	}
	svc := newTestService(&mockLinkRepo{}, sr, &mockKeys{}, Options{})

	if err := svc.RecordClick(context.Background(), "abc"); err != nil {
		t.Fatal(err)
	}
	if gotKey != "abc" {
		t.Errorf("expected stats increment for %q, got %q", "abc", gotKey)
	}
}

func TestRecordClick_EmptyKey(t *testing.T) {
	called := false
	clicks := &mockClicks{
		recordFn: func(context.Context, string, time.Time) error {
			called = true
			return nil
		},
	}

	svc := newTestService(&mockLinkRepo{}, &mockStatsRepo{}, &mockKeys{}, Options{Clicks: clicks})

	if err := svc.RecordClick(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("expected no-op for empty key")
	}
}

// --- Owner operations ---

func TestGetLink_OtherOwnerIsNotFound(t *testing.T) {
	svc := newTestService(ownedBy("alice"), &mockStatsRepo{}, &mockKeys{}, Options{})

	if _, err := svc.GetLink(context.Background(), "abc", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
	if _, err := svc.GetLink(context.Background(), "abc", "alice"); err != nil {
		t.Fatalf("owner should see link, got: %v", err)
	}
}

func TestGetLink_InactiveVisibleToOwner(t *testing.T) {
	lr := &mockLinkRepo{
		findByKeyFn: func(_ context.Context, key string) (*Link, error) {
			return &Link{Key: key, OwnerID: "alice", Active: false}, nil
		},
	}
	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{})

	link, err := svc.GetLink(context.Background(), "abc", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if link.Active {
		t.Error("expected inactive link")
	}
}

func TestUpdateLink(t *testing.T) {
	var saved *Link
	lr := ownedBy("alice")
	lr.updateFn = func(_ context.Context, l *Link) error { saved = l; return nil }

	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{})

	newURL := "https://example.org/new#frag"
	inactive := false
	exp := testNow.Add(24 * time.Hour)

	link, err := svc.UpdateLink(context.Background(), "abc", "alice", UpdateLinkInput{
		TargetURL: &newURL,
		Active:    &inactive,
		ExpiresAt: &exp,
	})
	if err != nil {
		t.Fatal(err)
	}
	if saved != link {
		t.Fatal("expected updated link to be saved")
	}
	if link.TargetURL != "https://example.org/new" {
		t.Errorf("got URL %q", link.TargetURL)
	}
	if link.Active {
		t.Error("expected link to be deactivated")
	}
	if link.ExpiresAt == nil || !link.ExpiresAt.Equal(exp) {
		t.Errorf("got expiry %v, want %v", link.ExpiresAt, exp)
	}
	if link.Key != "abc" || link.OwnerID != "alice" {
		t.Errorf("immutable fields changed: %+v", link)
	}
	if !link.UpdatedAt.Equal(testNow) {
		t.Errorf("got updatedAt %v", link.UpdatedAt)
	}
}

func TestUpdateLink_Errors(t *testing.T) {
	bad := "ftp://x"
	past := testNow.Add(-time.Minute)

	tests := []struct {
		name    string
		owner   string
		in      UpdateLinkInput
		wantErr error
	}{
		{"other owner", "bob", UpdateLinkInput{}, ErrNotFound},
		{"bad url", "alice", UpdateLinkInput{TargetURL: &bad}, ErrInvalidURL},
		{"past expiry", "alice", UpdateLinkInput{ExpiresAt: &past}, ErrInvalidExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := ownedBy("alice")
			lr.updateFn = func(context.Context, *Link) error {
				t.Error("update must not be called")
				return nil
			}
			svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{})

			_, err := svc.UpdateLink(context.Background(), "abc", tt.owner, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpdateLink_ClearExpiry(t *testing.T) {
	exp := testNow.Add(time.Hour)
	lr := &mockLinkRepo{
		findByKeyFn: func(_ context.Context, key string) (*Link, error) {
			return &Link{Key: key, OwnerID: "alice", ExpiresAt: &exp}, nil
		},
		updateFn: func(context.Context, *Link) error { return nil },
	}
	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{})

	link, err := svc.UpdateLink(context.Background(), "abc", "alice", UpdateLinkInput{ClearExpiry: true})
	if err != nil {
		t.Fatal(err)
	}
	if link.ExpiresAt != nil {
		t.Errorf("expected expiry cleared, got %v", link.ExpiresAt)
	}
}

func TestDeleteLink_RemovesStats(t *testing.T) {
	lr := ownedBy("alice")
	lr.deleteByKeyFn = func(context.Context, string) (bool, error) { return true, nil }
	statsDeleted := ""
	sr := &mockStatsRepo{
		deleteByKeyFn: func(_ context.Context, key string) error { statsDeleted = key; return nil },
	}

	svc := newTestService(lr, sr, &mockKeys{}, Options{})

	if err := svc.DeleteLink(context.Background(), "abc", "alice"); err != nil {
		t.Fatal(err)
	}
	if statsDeleted != "abc" {
		t.Errorf("expected stats for %q deleted, got %q", "abc", statsDeleted)
	}
}

func TestDeleteLink_NotFound(t *testing.T) {
	lr := ownedBy("alice")
	lr.deleteByKeyFn = func(context.Context, string) (bool, error) { return false, nil }

	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{})

	err := svc.DeleteLink(context.Background(), "abc", "alice")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestDeleteLink_EmptyKey(t *testing.T) {
	svc := newTestService(&mockLinkRepo{}, &mockStatsRepo{}, &mockKeys{}, Options{})

	err := svc.DeleteLink(context.Background(), "", "alice")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty key, got: %v", err)
	}
}

func TestListLinks_NormalizesPage(t *testing.T) {
	var got Page
	lr := &mockLinkRepo{
		listByOwnerFn: func(_ context.Context, _ string, p Page) ([]Link, error) { got = p; return nil, nil },
	}
	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{})

	if _, err := svc.ListLinks(context.Background(), "alice", Page{Limit: 5000, Offset: -3}); err != nil {
		t.Fatal(err)
	}
	if got.Limit != MaxPageLimit || got.Offset != 0 {
		t.Errorf("got page %+v", got)
	}
}

func TestListAll_TrimsSearch(t *testing.T) {
	var got ListFilter
	lr := &mockLinkRepo{
		listFn: func(_ context.Context, f ListFilter) ([]Link, error) { got = f; return nil, nil },
	}
	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{})

	if _, err := svc.ListAll(context.Background(), ListFilter{Search: "  example  "}); err != nil {
		t.Fatal(err)
	}
	if got.Search != "example" || got.Page.Limit != DefaultPageLimit {
		t.Errorf("got filter %+v", got)
	}
}

// --- Stats / QR ---

type ownerSearchFunc func(ctx context.Context, query string, limit int) ([]string, error)

func (f ownerSearchFunc) SearchIDsByUsername(ctx context.Context, query string, limit int) ([]string, error) {
	return f(ctx, query, limit)
}

func TestListAll_SearchesOwners(t *testing.T) {
	var got ListFilter
	lr := &mockLinkRepo{
		listFn: func(_ context.Context, f ListFilter) ([]Link, error) { got = f; return nil, nil },
	}
	var gotQuery string
	owners := ownerSearchFunc(func(_ context.Context, query string, _ int) ([]string, error) {
		gotQuery = query
		return []string{"u1", "u2"}, nil
	})
	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{Owners: owners})

	if _, err := svc.ListAll(context.Background(), ListFilter{Search: " ali "}); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "ali" {
		t.Errorf("got owner query %q, want ali", gotQuery)
	}
	if len(got.SearchOwnerIDs) != 2 || got.SearchOwnerIDs[0] != "u1" {
		t.Errorf("got owner ids %v", got.SearchOwnerIDs)
	}
}

func TestListAll_NoSearchSkipsOwnerLookup(t *testing.T) {
	lr := &mockLinkRepo{
		listFn: func(_ context.Context, f ListFilter) ([]Link, error) {
			if f.SearchOwnerIDs != nil {
				t.Errorf("unexpected owner ids %v", f.SearchOwnerIDs)
			}
			return nil, nil
		},
	}
	owners := ownerSearchFunc(func(context.Context, string, int) ([]string, error) {
		t.Error("owner lookup without a search term")
		return nil, nil
	})
	svc := newTestService(lr, &mockStatsRepo{}, &mockKeys{}, Options{Owners: owners})

	if _, err := svc.ListAll(context.Background(), ListFilter{SearchOwnerIDs: []string{"forged"}}); err != nil {
		t.Fatal(err)
	}
}

func TestListAll_OwnerLookupErrorSurfaces(t *testing.T) {
	boom := errors.New("users table gone")
	owners := ownerSearchFunc(func(context.Context, string, int) ([]string, error) { return nil, boom })
	svc := newTestService(&mockLinkRepo{}, &mockStatsRepo{}, &mockKeys{}, Options{Owners: owners})

	if _, err := svc.ListAll(context.Background(), ListFilter{Search: "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped owner lookup error, got: %v", err)
	}
}

func TestGetStats_InvalidRange(t *testing.T) {
	svc := newTestService(ownedBy("alice"), &mockStatsRepo{}, &mockKeys{}, Options{})

	tests := []struct {
		name     string
		from, to time.Time
	}{
		{"reversed", time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"too wide", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetStats(context.Background(), "abc", "alice", tt.from, tt.to)
			if !errors.Is(err, ErrInvalidRange) {
				t.Fatalf("expected ErrInvalidRange, got: %v", err)
			}
		})
	}
}

func TestGetStats_GapFilling(t *testing.T) {
	sr := &mockStatsRepo{
		getDailyFn: func(_ context.Context, _ string, _, _ time.Time) ([]DailyCount, error) {
			return []DailyCount{
				{Date: "2025-01-01", Count: 5},
				{Date: "2025-01-03", Count: 3},
			}, nil
		},
	}

	svc := newTestService(ownedBy("alice"), sr, &mockKeys{}, Options{})

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	counts, err := svc.GetStats(context.Background(), "abc", "alice", from, to)
	if err != nil {
		t.Fatal(err)
	}

	if len(counts) != 3 {
		t.Fatalf("expected 3 days, got %d", len(counts))
	}
	if counts[0].Date != "2025-01-01" || counts[0].Count != 5 {
		t.Errorf("day 0: got %+v", counts[0])
	}
	// gap
	if counts[1].Date != "2025-01-02" || counts[1].Count != 0 {
		t.Errorf("day 1: got %+v", counts[1])
	}
	if counts[2].Date != "2025-01-03" || counts[2].Count != 3 {
		t.Errorf("day 2: got %+v", counts[2])
	}
}

func TestQRCode(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		wantSize int
	}{
		{"default", 0, defaultQRSize},
		{"clamped low", 10, minQRSize},
		{"clamped high", 5000, maxQRSize},
		{"as requested", 300, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qr := &mockQR{}
			svc := newTestService(ownedBy("alice"), &mockStatsRepo{}, &mockKeys{}, Options{QR: qr})

			png, err := svc.QRCode(context.Background(), "abc", "alice", tt.size)
			if err != nil {
				t.Fatal(err)
			}
			if string(png) != "png" {
				t.Errorf("unexpected payload %q", png)
			}
			if qr.content != "http://sho.rt/abc" {
				t.Errorf("got qr content %q", qr.content)
			}
			if qr.size != tt.wantSize {
				t.Errorf("got size %d, want %d", qr.size, tt.wantSize)
			}
		})
	}
}

func TestQRCode_OtherOwner(t *testing.T) {
	svc := newTestService(ownedBy("alice"), &mockStatsRepo{}, &mockKeys{}, Options{QR: &mockQR{}})

	if _, err := svc.QRCode(context.Background(), "abc", "bob", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}
