package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/IgorGrieder/shortlinks/internal/infrastructure/auth"
	"github.com/IgorGrieder/shortlinks/internal/infrastructure/validation"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 150
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength = 72
)

type Service struct {
	repo       UserRepository
	tokens     TokenService
	bcryptCost int
	now        func() time.Time

	// checked against for unknown usernames
	dummyHash []byte
}

func NewService(repo UserRepository, tokens TokenService, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcryptCost)

	return &Service{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		now:        time.Now,
		dummyHash:  dummy,
	}
}

// Register creates the account and returns it with a token, so the caller is
// logged in straight away.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if err := validateUsername(username); err != nil {
		return nil, "", err
	}
	if validation.Get().Var(email, "required,email") != nil {
		return nil, "", ErrInvalidEmail
	}
	if len(in.Password) < minPasswordLength || len(in.Password) > maxPasswordLength {
		return nil, "", ErrInvalidPassword
	}
	if in.Password != in.PasswordConfirm {
		return nil, "", ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Sign(user.ID, user.Username)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*User, string, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Sign(user.ID, user.Username)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return user, token, nil
}

func (s *Service) Authenticate(token string) (auth.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, ErrInvalidToken
	}
	return auth.Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// Usernames follow the usual account rules: letters, digits and @.+-_ only.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9@.+_-]+$`)

func validateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return ErrInvalidUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}
