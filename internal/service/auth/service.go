// Package auth registers users, verifies passwords and issues bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/logger"
	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/model/user"
)

const (
	DefaultTTL     = 30 * time.Minute
	minPasswordLen = 8
	// bcrypt rejects longer inputs.
	maxPasswordBytes = 72
	dateLayout       = "2006-01-02"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidToken       = errors.New("could not validate credentials")
)

// Registration is the sign-up payload.
type Registration struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Birthdate string `json:"birthdate"`
	Password  string `json:"password"`
}

// Token is a signed access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service issues HS256 tokens whose subject is the user's email.
type Service struct {
	users  user.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    *logger.Logger
}

// NewService builds the auth service. A ttl <= 0 selects DefaultTTL.
func NewService(users user.Store, secret string, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		log:    logger.OrNop(log).With("service", "auth"),
	}
}

// Register validates the payload, hashes the password and stores the user.
func (s *Service) Register(ctx context.Context, reg Registration) (user.User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))

	birthdate, err := s.validate(reg)
	if err != nil {
		return user.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.users.CreateUser(ctx, user.User{
		Name:         reg.Name,
		Email:        reg.Email,
		Birthdate:    birthdate,
		PasswordHash: string(hash),
	})
	if err != nil {
		return user.User{}, err
	}
	s.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies the password and returns a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	u, ok, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return Token{}, err
	}
	if !ok {
		return Token{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Token{}, ErrInvalidCredentials
	}
	return s.Issue(u.Email)
}

// Issue signs a token for the subject.
func (s *Service) Issue(subject string) (Token, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, TokenType: "bearer", ExpiresAt: expires}, nil
}

// Authenticate resolves a bearer token into its user.
func (s *Service) Authenticate(ctx context.Context, raw string) (user.User, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return user.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return user.User{}, ErrInvalidToken
	}

	u, ok, err := s.users.FindUserByEmail(ctx, claims.Subject)
	if err != nil {
		return user.User{}, err
	}
	if !ok {
		return user.User{}, ErrInvalidToken
	}
	return u, nil
}

func (s *Service) validate(reg Registration) (time.Time, error) {
	if reg.Name == "" || len(reg.Name) > 100 {
		return time.Time{}, fmt.Errorf("%w: name must be 1-100 characters", user.ErrValidation)
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid email", user.ErrValidation)
	}
	if err := checkPassword(reg.Password); err != nil {
		return time.Time{}, err
	}
	var birthdate time.Time
	if reg.Birthdate != "" {
		parsed, err := time.Parse(dateLayout, reg.Birthdate)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: birthdate must be YYYY-MM-DD", user.ErrValidation)
		}
		if parsed.After(s.now()) {
			return time.Time{}, fmt.Errorf("%w: birthdate cannot be in the future", user.ErrValidation)
		}
		birthdate = parsed
	}
	return birthdate, nil
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", user.ErrValidation, minPasswordLen)
	}
	if len(pw) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", user.ErrValidation, maxPasswordBytes)
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return fmt.Errorf("%w: password needs an uppercase letter, a lowercase letter and a digit", user.ErrValidation)
	}
	return nil
}

type contextKey struct{}

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFrom returns the authenticated user, if any.
func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(contextKey{}).(user.User)
	return u, ok
}
