package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/arunika-studio/backend-arunika/internal/common"
)

const defaultAccessTTL = 8 * time.Hour

// ErrStaffNotFound is returned when no staff account matches the email.
var ErrStaffNotFound = errors.New("staff not found")

// Staff is a studio staff account with admin access to orders and rates.
type Staff struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StaffStore abstracts staff account persistence.
type StaffStore interface {
	GetByEmail(ctx context.Context, email string) (Staff, error)
}

// PGStaffStore loads staff accounts from Postgres.
type PGStaffStore struct {
	pool *pgxpool.Pool
}

// NewPGStaffStore constructs a PGStaffStore.
func NewPGStaffStore(pool *pgxpool.Pool) *PGStaffStore {
	return &PGStaffStore{pool: pool}
}

// GetByEmail loads one staff account by email.
func (s *PGStaffStore) GetByEmail(ctx context.Context, email string) (Staff, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM staff WHERE email = $1`, email)
	var staff Staff
	if err := row.Scan(&staff.ID, &staff.Name, &staff.Email, &staff.PasswordHash, &staff.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Staff{}, ErrStaffNotFound
		}
		return Staff{}, fmt.Errorf("get staff by email: %w", err)
	}
	return staff, nil
}

// Upsert inserts or updates a staff account. Used by the seeder.
func (s *PGStaffStore) Upsert(ctx context.Context, staff Staff) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO staff (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash`,
		staff.ID, staff.Name, staff.Email, staff.PasswordHash)
	if err != nil {
		return fmt.Errorf("upsert staff: %w", err)
	}
	return nil
}

// Service signs and validates staff bearer tokens.
type Service struct {
	store     StaffStore
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
	clockSkew time.Duration
}

// Config configures the auth service.
type Config struct {
	Store          StaffStore
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	Staff       Staff     `json:"staff"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("auth: staff store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-arunika"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "arunika-studio"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		store:     cfg.Store,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies staff credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, common.NewAppError("VALIDATION_ERROR", "email and password are required", http.StatusBadRequest, nil)
	}
	staff, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrStaffNotFound) {
			return LoginResult{}, common.NewAppError("UNAUTHORIZED", "invalid credentials", http.StatusUnauthorized, err)
		}
		return LoginResult{}, err
	}
	ok, err := argon2id.ComparePasswordAndHash(password, staff.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return LoginResult{}, common.NewAppError("UNAUTHORIZED", "invalid credentials", http.StatusUnauthorized, nil)
	}
	token, expiresAt, err := s.signAccessToken(staff.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	staff.PasswordHash = ""
	return LoginResult{Staff: staff, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// ParseAccessToken validates a bearer token and returns the staff ID.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", fmt.Errorf("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(staffID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(staffID).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}
