// Package account handles sign-up, sign-in and the customer's own profile.
package account

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"dryfruit_back_end/internal/apperr"
	"dryfruit_back_end/internal/models"
	"dryfruit_back_end/internal/store"
	"dryfruit_back_end/internal/utils"
)

const (
	VerificationTTL   = 15 * time.Minute
	MinPasswordLength = 8
	ProviderLocal     = "local"
)

type Users interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	SetVerificationCode(ctx context.Context, id, code string, expiry time.Time) error
	MarkVerified(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id, name, phone string) error
	SetAddresses(ctx context.Context, id string, addrs []models.Address) error
	SetPreferences(ctx context.Context, id string, p models.Preferences) error
	SetRole(ctx context.Context, id, role string) error
	SetPassword(ctx context.Context, id, hash string) error
	LinkProvider(ctx context.Context, id, provider, providerID string) error
	List(ctx context.Context, f store.UserFilter) ([]models.User, int64, error)
}

// Tokens is the Redis side of sessions.
type Tokens interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	AllowResend(ctx context.Context, email string) bool
}

type Notifier interface {
	VerificationCode(email, name, code string)
	Welcome(email, name string)
}

type Service struct {
	users     Users
	tokens    Tokens
	notifier  Notifier
	jwtSecret string
	now       func() time.Time
}

func NewService(users Users, tokens Tokens, notifier Notifier, jwtSecret string) *Service {
	return &Service{users: users, tokens: tokens, notifier: notifier, jwtSecret: jwtSecret, now: time.Now}
}

// Session is what a successful sign-in hands back to the handler.
type Session struct {
	User   *models.User
	Token  string
	Claims *utils.Claims
}

func (s *Service) issue(u *models.User) (*Session, error) {
	token, claims, err := utils.GenerateJWT(s.jwtSecret, u)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{User: u, Token: token, Claims: claims}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("A valid email is required")
	}
	return email, nil
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Register creates a local account and mails a verification code. The
// caller is signed in right away; verification only gates the welcome mail.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperr.Validation("Password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	code, err := utils.VerificationCode()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := &models.User{
		Email:              email,
		Name:               name,
		Phone:              strings.TrimSpace(in.Phone),
		Password:           hash,
		Role:               models.RoleCustomer,
		Provider:           ProviderLocal,
		VerificationCode:   code,
		VerificationExpiry: s.now().Add(VerificationTTL),
		Preferences:        models.DefaultPreferences(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("An account with this email already exists").With("email", email)
		}
		return nil, apperr.Internal(err)
	}
	log.Printf("✅ User registered: %s", email)
	s.notifier.VerificationCode(u.Email, u.Name, code)
	return s.issue(u)
}

// Login checks the password. Accounts still on bcrypt are rehashed to
// argon2id on success.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := apperr.Auth("Invalid email or password")
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u.Password == "" {
		return nil, apperr.Auth("This account uses Google sign-in")
	}
	ok, err := utils.VerifyPassword(password, u.Password)
	if err != nil {
		log.Printf("⚠️ Unreadable password hash for %s: %v", u.Email, err)
		return nil, invalid
	}
	if !ok {
		return nil, invalid
	}
	if utils.IsBcryptHash(u.Password) {
		if hash, err := utils.HashPassword(password); err == nil {
			if err := s.users.SetPassword(ctx, u.ID.Hex(), hash); err != nil {
				log.Printf("⚠️ Password rehash failed for %s: %v", u.Email, err)
			}
		}
	}
	return s.issue(u)
}

// AdminLogin is Login restricted to admin roles.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*Session, error) {
	sess, err := s.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !sess.User.IsAdmin() {
		return nil, apperr.Forbidden("Admin access required")
	}
	return sess, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, jti string, remaining time.Duration) error {
	if err := s.tokens.BlacklistToken(ctx, jti, remaining); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *Service) VerifyEmail(ctx context.Context, email, code string) (*models.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Account not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if u.EmailVerified {
		return u, nil
	}
	if u.VerificationCode == "" || u.VerificationCode != strings.TrimSpace(code) {
		return nil, apperr.Validation("Invalid verification code")
	}
	if s.now().After(u.VerificationExpiry) {
		return nil, apperr.Validation("Verification code has expired")
	}
	if err := s.users.MarkVerified(ctx, u.ID.Hex()); err != nil {
		return nil, apperr.Internal(err)
	}
	u.EmailVerified = true
	u.VerificationCode = ""
	s.notifier.Welcome(u.Email, u.Name)
	return u, nil
}

func (s *Service) ResendCode(ctx context.Context, email string) error {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Account not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	if u.EmailVerified {
		return apperr.Validation("Email is already verified")
	}
	if !s.tokens.AllowResend(ctx, u.Email) {
		return apperr.RateLimited("Please wait a minute before requesting another code", 60)
	}
	code, err := utils.VerificationCode()
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.users.SetVerificationCode(ctx, u.ID.Hex(), code, s.now().Add(VerificationTTL)); err != nil {
		return apperr.Internal(err)
	}
	s.notifier.VerificationCode(u.Email, u.Name, code)
	return nil
}

// OAuthLogin finds the account by email, linking the provider to it, or
// creates a verified customer account without a password.
func (s *Service) OAuthLogin(ctx context.Context, provider, providerID, email, name string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, apperr.Auth("The provider did not share an email address")
	}
	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if u.ProviderID != providerID {
			if err := s.users.LinkProvider(ctx, u.ID.Hex(), provider, providerID); err != nil {
				return nil, apperr.Internal(err)
			}
			log.Printf("🔄 Linked %s sign-in to existing account %s", provider, email)
		}
		u.EmailVerified = true
	case errors.Is(err, store.ErrNotFound):
		if name == "" {
			name = strings.Split(email, "@")[0]
		}
		u = &models.User{
			Email:         email,
			Name:          name,
			Role:          models.RoleCustomer,
			Provider:      provider,
			ProviderID:    providerID,
			EmailVerified: true,
			Preferences:   models.DefaultPreferences(),
		}
		if err := s.users.Create(ctx, u); err != nil {
			return nil, apperr.Internal(err)
		}
		log.Printf("🆕 %s account created: %s", provider, email)
		s.notifier.Welcome(u.Email, u.Name)
	default:
		return nil, apperr.Internal(err)
	}
	return s.issue(u)
}

func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Auth("Account no longer exists")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID, name, phone string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if err := s.users.UpdateProfile(ctx, userID, name, strings.TrimSpace(phone)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Auth("Account no longer exists")
		}
		return nil, apperr.Internal(err)
	}
	return s.Me(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if u.Password != "" {
		ok, err := utils.VerifyPassword(current, u.Password)
		if err != nil || !ok {
			return apperr.Validation("Current password is incorrect")
		}
	}
	if len(next) < MinPasswordLength {
		return apperr.Validation("Password must be at least 8 characters")
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.users.SetPassword(ctx, userID, hash); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

var currencies = map[string]bool{"INR": true, "USD": true, "EUR": true, "GBP": true, "AED": true}

func (s *Service) UpdatePreferences(ctx context.Context, userID string, p models.Preferences) (*models.Preferences, error) {
	if p.Language == "" {
		p.Language = "en"
	}
	p.Currency = strings.ToUpper(p.Currency)
	if p.Currency == "" {
		p.Currency = "INR"
	}
	if !currencies[p.Currency] {
		return nil, apperr.Validation("Unsupported currency " + p.Currency)
	}
	if err := s.users.SetPreferences(ctx, userID, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Auth("Account no longer exists")
		}
		return nil, apperr.Internal(err)
	}
	return &p, nil
}

type UserQuery struct {
	Page   int
	Limit  int
	Search string
	Role   string
}

type UserPage struct {
	Items      []models.User     `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

func (s *Service) ListUsers(ctx context.Context, q UserQuery) (*UserPage, error) {
	pg := store.Page{Page: q.Page, Limit: q.Limit}.Normalize()
	items, total, err := s.users.List(ctx, store.UserFilter{Search: strings.TrimSpace(q.Search), Role: q.Role, Page: pg})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &UserPage{Items: items, Pagination: models.NewPagination(pg.Page, pg.Limit, total)}, nil
}

// SetRole is reserved to super admins, who cannot demote themselves.
func (s *Service) SetRole(ctx context.Context, actorID, actorRole, targetID, role string) (before, after *models.User, err error) {
	if actorRole != models.RoleSuperAdmin {
		return nil, nil, apperr.Forbidden("Only a super admin can change roles")
	}
	switch role {
	case models.RoleCustomer, models.RoleAdmin, models.RoleSuperAdmin:
	default:
		return nil, nil, apperr.Validation("role must be customer, admin or super_admin")
	}
	if actorID == targetID {
		return nil, nil, apperr.Validation("You cannot change your own role")
	}
	u, err := s.users.FindByID(ctx, targetID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	if err := s.users.SetRole(ctx, targetID, role); err != nil {
		return nil, nil, apperr.Internal(err)
	}
	updated := *u
	updated.Role = role
	log.Printf("👤 Role of %s changed %s → %s", u.Email, u.Role, role)
	return u, &updated, nil
}
