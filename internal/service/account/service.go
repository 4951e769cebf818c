package account

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/auth"
	"github.com/oggyb/pahilobhet/internal/db"
	svcErr "github.com/oggyb/pahilobhet/internal/errors"
	"github.com/oggyb/pahilobhet/internal/repository"
	"github.com/oggyb/pahilobhet/internal/service/profile"
)

const (
	minPasswordLen = 8
	// bcrypt rejects longer inputs.
	maxPasswordLen = 72
)

// SignupRequest is the registration payload. Name, email and password are required.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is returned by signup and login.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      profile.Private `json:"user"`
}

// Service handles registration and credential checks.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	now    func() time.Time
}

func NewAccountService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		now:    time.Now,
	}
}

// Signup creates an account and returns a session for it.
//
// Behavior:
//   - Emails are compared case-insensitively (stored lower-cased).
//   - A taken email fails with ErrEmailTaken, including when two signups race
//     and the unique index rejects the second insert.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	email, err := normalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, svcErr.InvalidArgument("Name, email, and password are required")
	}
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLen {
		return nil, svcErr.InvalidArgument("password must be at least 8 characters")
	}
	if len(req.Password) > maxPasswordLen {
		return nil, svcErr.InvalidArgument("password must be at most 72 bytes")
	}
	if err := profile.ValidateAge(req.Age); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if taken {
		return nil, svcErr.Map(svcErr.ErrEmailTaken)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	u := db.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Age:          req.Age,
		Gender:       strings.TrimSpace(req.Gender),
		Bio:          req.Bio,
		Location:     strings.TrimSpace(req.Location),
		Active:       true,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, svcErr.Map(svcErr.ErrEmailTaken)
		}
		s.appCtx.Logger.Error("create user failed", "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("user signed up", "user", u.ID)
	return s.session(u)
}

// Login verifies credentials and returns a fresh session. Unknown emails,
// wrong passwords and deactivated accounts all fail the same way.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if req.Email == "" || req.Password == "" {
		return nil, svcErr.InvalidArgument("Email and password are required")
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, svcErr.Map(svcErr.ErrInvalidCredentials)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.Map(svcErr.ErrInvalidCredentials)
		}
		return nil, svcErr.Map(err)
	}

	ok, err := auth.CheckPassword(u.PasswordHash, req.Password)
	if err != nil {
		s.appCtx.Logger.Error("stored password hash is malformed", "user", u.ID, "err", err)
		return nil, svcErr.Map(svcErr.ErrInvalidCredentials)
	}
	if !ok || !u.Active {
		return nil, svcErr.Map(svcErr.ErrInvalidCredentials)
	}

	now := s.now().UTC()
	if err := s.users.TouchLogin(ctx, u.ID, now); err != nil {
		s.appCtx.Logger.Warn("failed to record login time", "user", u.ID, "err", err)
	}
	u.LastLoginAt = &now

	return s.session(*u)
}

// Current resolves the caller of a validated token to their profile.
func (s *Service) Current(ctx context.Context, userID uint64) (*profile.Private, error) {
	u, err := s.users.GetActiveByID(ctx, userID)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil, svcErr.Map(svcErr.ErrNotAuthenticated)
		}
		return nil, svcErr.Map(err)
	}
	p := profile.ToPrivate(*u)
	return &p, nil
}

func (s *Service) session(u db.User) (*Session, error) {
	token, exp, err := s.appCtx.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &Session{Token: token, ExpiresAt: exp, User: profile.ToPrivate(u)}, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", svcErr.InvalidArgument("email is not valid")
	}
	return strings.ToLower(addr.Address), nil
}
