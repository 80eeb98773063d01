package usecase

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/clearpathhq/clearpath/internal/domain"
)

// Argon2Params defines parameters for Argon2id password hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

var defaultArgon2Params = Argon2Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 2,
	SaltLen:     16,
	KeyLen:      32,
}

// HashPassword creates an Argon2id hash of the password.
func HashPassword(password string) (string, error) {
	params := defaultArgon2Params
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLen)

	// Format: argon2id$iterations$memory$parallelism$salt$hash (base64 encoded)
	encoded := fmt.Sprintf("argon2id$%d$%d$%d$%s$%s",
		params.Iterations,
		params.Memory,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// VerifyPassword verifies a password against its Argon2id hash.
func VerifyPassword(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return false
	}
	iters, err1 := parseUint32(parts[1])
	mem, err2 := parseUint32(parts[2])
	par64, err3 := parseUint32(parts[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	var par uint8
	if par64 > math.MaxUint8 {
		par = math.MaxUint8
	} else {
		par = uint8(par64)
	}
	actualHash := argon2.IDKey([]byte(password), salt, iters, mem, par, defaultArgon2Params.KeyLen)
	return subtle.ConstantTimeCompare(actualHash, expectedHash) == 1
}

func parseUint32(s string) (uint32, error) {
	x, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse")
	}
	return uint32(x), nil
}

// AuthService registers users and checks credentials. Sessions themselves are
// issued at the HTTP layer; this service only owns identity and passwords.
type AuthService struct {
	Users domain.UserRepository
}

// NewAuthService constructs an AuthService with the given repo.
func NewAuthService(u domain.UserRepository) AuthService { return AuthService{Users: u} }

// Register creates a new user with a hashed password. Email is the login key
// and must be unique; a taken email maps to domain.ErrConflict.
func (s AuthService) Register(ctx domain.Context, name, email, password string, role domain.Role, company string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || len(password) < 8 {
		return domain.User{}, fmt.Errorf("%w: name, email and a password of 8+ chars required", domain.ErrInvalidArgument)
	}
	if role != domain.RoleCandidate && role != domain.RoleRecruiter {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidArgument, role)
	}
	if role == domain.RoleRecruiter && strings.TrimSpace(company) == "" {
		return domain.User{}, fmt.Errorf("%w: recruiters must set a company", domain.ErrInvalidArgument)
	}

	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("op=auth.register: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("op=auth.register: %w", err)
	}
	u := domain.User{
		Name:         name,
		Email:        email,
		Role:         role,
		Company:      strings.TrimSpace(company),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.Users.Create(ctx, u)
	if err != nil {
		return domain.User{}, fmt.Errorf("op=auth.register: %w", err)
	}
	u.ID = id
	u.PasswordHash = ""
	return u, nil
}

// Login checks credentials and returns the user on success. Unknown emails and
// wrong passwords both map to domain.ErrInvalidCredentials so callers cannot
// probe which emails exist.
func (s AuthService) Login(ctx domain.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("op=auth.login: %w", err)
	}
	if !VerifyPassword(password, u.PasswordHash) {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	u.PasswordHash = ""
	return u, nil
}
