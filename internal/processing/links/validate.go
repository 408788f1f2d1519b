package links

import (
	"net/url"
	"strings"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/validation"
)

const (
	MaxURLLength       = 2048
	MaxCustomKeyLength = 10
	// Generated keys can grow past the custom key limit when the generator
	// escalates; storage columns are sized to this.
	MaxKeyLength = 32
)

// DefaultReservedKeys collide with top-level routes and cannot be custom keys.
var DefaultReservedKeys = []string{"api", "admin", "health", "metrics", "static", "login", "logout", "register"}

func validateAndNormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > MaxURLLength {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidURL
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", ErrInvalidURL
	}

	u.Fragment = ""
	// Escaping can grow the URL well past the raw input.
	normalized := u.String()
	if len(normalized) > MaxURLLength {
		return "", ErrInvalidURL
	}
	return normalized, nil
}

func isAlnum(s string) bool {
	return validation.Get().Var(s, "required,alphanum") == nil
}

// isLookupKey filters out paths that can never name a link before they reach storage.
func isLookupKey(key string) bool {
	return len(key) <= MaxKeyLength && isAlnum(key)
}

func (s *Service) validateCustomKey(key string) error {
	if len(key) > s.customKeyMaxLength || !isAlnum(key) {
		return ErrInvalidKey
	}
	if _, reserved := s.reserved[strings.ToLower(key)]; reserved {
		return ErrInvalidKey
	}
	return nil
}
