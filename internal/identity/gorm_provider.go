package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sulabh/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const confirmationCodeTTL = 24 * time.Hour

// GormProvider stores identities in the users table, hashes passwords with
// bcrypt and issues JWT access tokens backed by SessionStore records, so
// SignOut revokes a token before it expires.
type GormProvider struct {
	DB       *gorm.DB
	Sessions SessionStore
	Tokens   *TokenService
	Hasher   *BcryptPasswordHasher
	Logger   *slog.Logger

	ttl    time.Duration
	events listeners
}

func NewGormProvider(db *gorm.DB, sessions SessionStore, tokens *TokenService, hasher *BcryptPasswordHasher, ttl time.Duration, logger *slog.Logger) *GormProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormProvider{
		DB:       db,
		Sessions: sessions,
		Tokens:   tokens,
		Hasher:   hasher,
		Logger:   logger,
		ttl:      ttl,
	}
}

// AutoMigrate creates or updates the users table.
func (p *GormProvider) AutoMigrate() error {
	return p.DB.AutoMigrate(&models.User{})
}

func (p *GormProvider) GetSession(ctx context.Context, token string) (*Session, error) {
	claims, err := p.Tokens.Verify(token)
	if err != nil {
		p.Logger.Debug("rejecting session token", "error", err)
		return nil, nil
	}

	userID, ok, err := p.Sessions.Get(ctx, sessionKey(claims.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if !ok || userID != claims.UserID {
		return nil, nil
	}
	return &Session{Token: token, UserID: claims.UserID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (p *GormProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := p.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := p.Hasher.Verify(password, user.PasswordHash); err != nil {
		return nil, err
	}
	return p.openSession(ctx, user)
}

func (p *GormProvider) SignUp(ctx context.Context, req SignUpRequest) (*Session, error) {
	existing, err := p.FindUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountExists
	}

	hash, err := p.Hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        normalizeEmail(req.Email),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         models.RoleCitizen,
		PasswordHash: hash,
	}
	if err := p.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAccountExists
		}
		p.Logger.Error("failed to create user", "email", user.Email, "error", err)
		return nil, &ProviderError{Code: "signup_failed", Message: "could not create account"}
	}

	code := uuid.NewString()
	if err := p.Sessions.Set(ctx, codeKey(code), user.ID, confirmationCodeTTL); err != nil {
		p.Logger.Warn("failed to store confirmation code", "user_id", user.ID, "error", err)
	} else {
		// delivery of the code by email happens outside this service
		p.Logger.Info("confirmation code issued", "user_id", user.ID)
	}

	return p.openSession(ctx, user)
}

func (p *GormProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.Tokens.Verify(token)
	if err != nil {
		// an unparseable token has no session to end
		return nil
	}
	if err := p.Sessions.Delete(ctx, sessionKey(claims.ID)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	p.events.emit(SessionEvent{Token: token})
	return nil
}

func (p *GormProvider) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	userID, ok, err := p.Sessions.Get(ctx, codeKey(code))
	if err != nil {
		return nil, fmt.Errorf("failed to look up confirmation code: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCode
	}
	if err := p.Sessions.Delete(ctx, codeKey(code)); err != nil {
		p.Logger.Warn("failed to delete used confirmation code", "error", err)
	}

	if err := p.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("email_confirmed", true).Error; err != nil {
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}

	user, err := p.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCode
	}
	return p.openSession(ctx, user)
}

func (p *GormProvider) OnSessionChange(fn func(SessionEvent)) func() {
	return p.events.add(fn)
}

func (p *GormProvider) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := p.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &user, nil
}

func (p *GormProvider) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error {
	user, err := p.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return &ProviderError{Code: "user_not_found", Message: "no profile for user " + userID}
	}
	applyProfileUpdate(user, update)
	return p.DB.WithContext(ctx).Save(user).Error
}

// FindUserByEmail returns the user registered with email, or nil.
func (p *GormProvider) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := p.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

func (p *GormProvider) openSession(ctx context.Context, user *models.User) (*Session, error) {
	token, claims, err := p.Tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := p.Sessions.Set(ctx, sessionKey(claims.ID), user.ID, p.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	sess := &Session{Token: token, UserID: user.ID, ExpiresAt: claims.ExpiresAt.Time}
	p.events.emit(SessionEvent{Token: token, Session: sess})
	return sess, nil
}
