package links

import "time"

type Link struct {
	Key        string
	TargetURL  string
	OwnerID    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ClickCount int64
	Active     bool
	ExpiresAt  *time.Time
}

// ExpiredAt reports whether the link has an expiry at or before t.
func (l *Link) ExpiredAt(t time.Time) bool {
	return l.ExpiresAt != nil && !t.Before(*l.ExpiresAt)
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type CreateLinkInput struct {
	TargetURL string
	CustomKey string
	OwnerID   string
	ExpiresAt *time.Time
}

// UpdateLinkInput carries the owner-editable fields. Nil means unchanged.
type UpdateLinkInput struct {
	TargetURL   *string
	Active      *bool
	ExpiresAt   *time.Time
	ClearExpiry bool
}

type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ListFilter narrows the admin listing. Search matches key, target URL, or
// any owner listed in SearchOwnerIDs.
type ListFilter struct {
	OwnerID        string
	Active         *bool
	Search         string
	SearchOwnerIDs []string
	Page           Page
}
