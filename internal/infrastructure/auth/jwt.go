package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID   string
	Username string
}

type jwtClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies bearer tokens for the API.
type TokenService interface {
	Sign(userID, username string) (string, error)
	Verify(token string) (Claims, error)
}

type HS256Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewHS256Service(secret, issuer string, ttl time.Duration) (*HS256Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if issuer == "" {
		return nil, errors.New("jwt issuer is empty")
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be > 0")
	}
	return &HS256Service{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (h *HS256Service) Sign(userID, username string) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}
	now := h.now()

	claims := jwtClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    h.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(h.secret)
}

func (h *HS256Service) Verify(tokenString string) (Claims, error) {
	var parsed jwtClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(h.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &parsed, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if parsed.Subject == "" {
		return Claims{}, errors.New("token has no subject")
	}
	return Claims{
		UserID:   parsed.Subject,
		Username: parsed.Username,
	}, nil
}
