package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Reasons carried by token AuthErrors. They surface as the "details" field
// of the error response and as the auth failure metric label.
var (
	ErrTokenMissing     = errors.New("token_missing")
	ErrTokenExpired     = errors.New("token_expired")
	ErrTokenInvalid     = errors.New("token_invalid")
	ErrTokenUserMissing = errors.New("user_missing")
)

const invalidCredentials = "Invalid email or password"

// dummyHash is compared against when the email is unknown so a failed login
// costs the same with or without an account.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("inkwell-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt dummy hash: %v", err))
	}
	return h
})

type AuthService struct {
	userRepo repository.UserRepository
	secret   []byte
	issuer   string
	ttl      time.Duration
	now      func() time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string             `json:"token"`
	User  models.UserSummary `json:"user"`
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	issuer := cfg.JWTIssuer
	if issuer == "" {
		issuer = "inkwell-api"
	}
	return &AuthService{
		userRepo: userRepo,
		secret:   []byte(cfg.JWTSecret),
		issuer:   issuer,
		ttl:      cfg.TokenTTL(),
		now:      time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateName(name); err != nil {
		return nil, models.NewValidationError("Name must be between 2 and 50 characters")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError("Please provide a valid email")
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(capitalize(err.Error()))
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already exists with this email")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Name: name, Email: email, Password: string(hashed)}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "User registered", slog.Uint64("user_id", uint64(user.ID)))
	return s.result(user)
}

// Login answers the same AuthError for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError("Please provide a valid email")
	}
	if password == "" {
		return nil, models.NewValidationError("Password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	hash := dummyHash()
	if user != nil {
		hash = []byte(user.Password)
	}
	cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if user == nil || cmpErr != nil {
		middleware.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		middleware.Logger.WarnContext(ctx, "Login failed")
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}

	return s.result(user)
}

func (s *AuthService) result(user *models.User) (*AuthResult, error) {
	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user.Summary()}, nil
}

// IssueToken signs an HS256 session token for userID.
func (s *AuthService) IssueToken(userID uint) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"uid": userID,
		"iss": s.issuer,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken resolves a raw bearer token to its user. Every failure is an
// UNAUTHORIZED AppError wrapping one of the ErrToken* reasons.
func (s *AuthService) VerifyToken(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, models.NewAuthError("No token provided, authorization denied", ErrTokenMissing)
	}

	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.NewAuthError("Token has expired", ErrTokenExpired)
		}
		return nil, models.NewAuthError("Invalid token", ErrTokenInvalid)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return nil, models.NewAuthError("Invalid token", ErrTokenInvalid)
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return nil, models.NewAuthError("Invalid token", ErrTokenInvalid)
	}

	user, err := s.userRepo.GetByID(ctx, uint(id))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewAuthError("Token is valid but user not found", ErrTokenUserMissing)
		}
		return nil, err
	}
	return user, nil
}

// Me returns the public view of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := user.Summary()
	return &summary, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
