package links

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	defaultInsertAttempts = 10
	defaultQRSize         = 256
	minQRSize             = 64
	maxQRSize             = 1024
	maxStatsDays          = 366
	maxOwnerMatches       = 100
)

type Options struct {
	// BaseURL prefixes keys to form the public short URL.
	BaseURL            string
	InsertAttempts     int
	CustomKeyMaxLength int
	ReservedKeys       []string

	// Clicks defaults to writing daily stats directly.
	Clicks ClickRecorder
	QR     QRRenderer
	// Owners lets admin search match owner usernames. Nil limits search to
	// key and target URL.
	Owners OwnerSearcher
}

type Service struct {
	linkRepo  LinkRepository
	statsRepo StatsRepository
	keys      KeyGenerator
	clicks    ClickRecorder
	qr        QRRenderer
	owners    OwnerSearcher

	baseURL            string
	insertAttempts     int
	customKeyMaxLength int
	reserved           map[string]struct{}

	now func() time.Time
}

func NewService(linkRepo LinkRepository, statsRepo StatsRepository, keys KeyGenerator, opts Options) *Service {
	if opts.InsertAttempts <= 0 {
		opts.InsertAttempts = defaultInsertAttempts
	}
	if opts.CustomKeyMaxLength <= 0 || opts.CustomKeyMaxLength > MaxKeyLength {
		opts.CustomKeyMaxLength = MaxCustomKeyLength
	}
	if opts.ReservedKeys == nil {
		opts.ReservedKeys = DefaultReservedKeys
	}
	if opts.Clicks == nil {
		opts.Clicks = StatsClickRecorder{Stats: statsRepo}
	}

	reserved := make(map[string]struct{}, len(opts.ReservedKeys))
	for _, k := range opts.ReservedKeys {
		reserved[strings.ToLower(k)] = struct{}{}
	}

	return &Service{
		linkRepo:           linkRepo,
		statsRepo:          statsRepo,
		keys:               keys,
		clicks:             opts.Clicks,
		qr:                 opts.QR,
		owners:             opts.Owners,
		baseURL:            strings.TrimRight(opts.BaseURL, "/"),
		insertAttempts:     opts.InsertAttempts,
		customKeyMaxLength: opts.CustomKeyMaxLength,
		reserved:           reserved,
		now:                time.Now,
	}
}

func (s *Service) ShortURL(key string) string {
	return s.baseURL + "/" + key
}

func (s *Service) CreateLink(ctx context.Context, in CreateLinkInput) (*Link, error) {
	normalizedURL, err := validateAndNormalizeURL(in.TargetURL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	now := s.now().UTC()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, ErrInvalidExpiry
	}

	link := &Link{
		TargetURL: normalizedURL,
		OwnerID:   in.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
		Active:    true,
		ExpiresAt: in.ExpiresAt,
	}

	if customKey := strings.TrimSpace(in.CustomKey); customKey != "" {
		return s.insertCustom(ctx, link, customKey)
	}

	for range s.insertAttempts {
		key, err := s.keys.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		link.Key = key

		if err := s.linkRepo.Insert(ctx, link); err != nil {
			// Another writer took the key between the existence check and the insert.
			if errors.Is(err, ErrKeyTaken) {
				continue
			}
			return nil, err
		}

		return link, nil
	}

	return nil, ErrKeyTaken
}

func (s *Service) insertCustom(ctx context.Context, link *Link, key string) (*Link, error) {
	if err := s.validateCustomKey(key); err != nil {
		return nil, err
	}

	exists, err := s.linkRepo.ExistsByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrKeyTaken
	}

	link.Key = key
	if err := s.linkRepo.Insert(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// Resolve dispatches a redirect: the returned link has already had its click
// counted.
func (s *Service) Resolve(ctx context.Context, key string) (*Link, error) {
	key = strings.TrimSpace(key)
	if !isLookupKey(key) {
		return nil, ErrNotFound
	}

	return s.linkRepo.ResolveAndIncClick(ctx, key, s.now().UTC())
}

func (s *Service) RecordClick(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	return s.clicks.RecordClick(ctx, key, s.now().UTC())
}

// GetLink returns a link owned by ownerID regardless of its active or expiry
// state. Links owned by someone else are reported as not found.
func (s *Service) GetLink(ctx context.Context, key, ownerID string) (*Link, error) {
	key = strings.TrimSpace(key)
	if !isLookupKey(key) {
		return nil, ErrNotFound
	}

	link, err := s.linkRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if link.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	return link, nil
}

func (s *Service) UpdateLink(ctx context.Context, key, ownerID string, in UpdateLinkInput) (*Link, error) {
	link, err := s.GetLink(ctx, key, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()

	if in.TargetURL != nil {
		normalizedURL, err := validateAndNormalizeURL(*in.TargetURL)
		if err != nil {
			return nil, ErrInvalidURL
		}
		link.TargetURL = normalizedURL
	}
	if in.Active != nil {
		link.Active = *in.Active
	}
	switch {
	case in.ClearExpiry:
		link.ExpiresAt = nil
	case in.ExpiresAt != nil:
		if !in.ExpiresAt.After(now) {
			return nil, ErrInvalidExpiry
		}
		expiresAt := in.ExpiresAt.UTC()
		link.ExpiresAt = &expiresAt
	}
	link.UpdatedAt = now

	if err := s.linkRepo.Update(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Service) DeleteLink(ctx context.Context, key, ownerID string) error {
	link, err := s.GetLink(ctx, key, ownerID)
	if err != nil {
		return err
	}

	deleted, err := s.linkRepo.DeleteByKey(ctx, link.Key)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}

	if err := s.statsRepo.DeleteByKey(ctx, link.Key); err != nil {
		return fmt.Errorf("delete stats: %w", err)
	}
	return nil
}

func (s *Service) ListLinks(ctx context.Context, ownerID string, page Page) ([]Link, error) {
	return s.linkRepo.ListByOwner(ctx, ownerID, page.Normalize())
}

func (s *Service) ListAll(ctx context.Context, filter ListFilter) ([]Link, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page = filter.Page.Normalize()
	filter.SearchOwnerIDs = nil

	if filter.Search != "" && s.owners != nil {
		ids, err := s.owners.SearchIDsByUsername(ctx, filter.Search, maxOwnerMatches)
		if err != nil {
			return nil, fmt.Errorf("search owners: %w", err)
		}
		filter.SearchOwnerIDs = ids
	}
	return s.linkRepo.List(ctx, filter)
}

func (s *Service) GetStats(ctx context.Context, key, ownerID string, from, to time.Time) ([]DailyCount, error) {
	link, err := s.GetLink(ctx, key, ownerID)
	if err != nil {
		return nil, err
	}

	from = dateOnly(from.UTC())
	to = dateOnly(to.UTC())
	if to.Before(from) || to.Sub(from) > maxStatsDays*24*time.Hour {
		return nil, ErrInvalidRange
	}

	counts, err := s.statsRepo.GetDaily(ctx, link.Key, from, to)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]int64, len(counts))
	for _, c := range counts {
		byDate[c.Date] = c.Count
	}

	out := make([]DailyCount, 0, int(to.Sub(from).Hours()/24)+1)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		ds := day.Format(time.DateOnly)
		out = append(out, DailyCount{
			Date:  ds,
			Count: byDate[ds],
		})
	}

	return out, nil
}

// QRCode renders the link's short URL as a PNG. Sizes are clamped to a sane range.
func (s *Service) QRCode(ctx context.Context, key, ownerID string, size int) ([]byte, error) {
	if s.qr == nil {
		return nil, errors.New("qr renderer not configured")
	}

	link, err := s.GetLink(ctx, key, ownerID)
	if err != nil {
		return nil, err
	}

	switch {
	case size <= 0:
		size = defaultQRSize
	case size < minQRSize:
		size = minQRSize
	case size > maxQRSize:
		size = maxQRSize
	}

	png, err := s.qr.RenderPNG(s.ShortURL(link.Key), size)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return png, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
