package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"sulabh/backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MemoryProvider is a deterministic in-process Provider. Set Err to simulate
// an unavailable provider: every call then fails with it.
type MemoryProvider struct {
	mu       sync.Mutex
	hasher   *BcryptPasswordHasher
	ttl      time.Duration
	now      func() time.Time
	users    map[string]*models.User
	byEmail  map[string]string
	sessions map[string]Session
	codes    map[string]string
	events   listeners

	Err error
}

// NewMemoryProvider creates an empty provider with the given session lifetime.
func NewMemoryProvider(ttl time.Duration) *MemoryProvider {
	return &MemoryProvider{
		hasher:   NewBcryptPasswordHasher(bcrypt.MinCost),
		ttl:      ttl,
		now:      time.Now,
		users:    make(map[string]*models.User),
		byEmail:  make(map[string]string),
		sessions: make(map[string]Session),
		codes:    make(map[string]string),
	}
}

// AddUser seeds an identity with a password, e.g. an operator account.
func (p *MemoryProvider) AddUser(u models.User, password string) (*models.User, error) {
	user, err := p.newUser(u, password)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.insertLocked(user)
	out := *user
	return &out, nil
}

func (p *MemoryProvider) newUser(u models.User, password string) (*models.User, error) {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	_ = u.BeforeCreate(nil)
	u.Email = normalizeEmail(u.Email)
	u.PasswordHash = hash
	u.CreatedAt = p.now()
	u.UpdatedAt = u.CreatedAt
	return &u, nil
}

// insertLocked stores u. Callers hold p.mu.
func (p *MemoryProvider) insertLocked(u *models.User) {
	p.users[u.ID] = u
	p.byEmail[u.Email] = u.ID
}

// PendingCode returns the confirmation code issued to email at sign-up.
func (p *MemoryProvider) PendingCode(email string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	userID := p.byEmail[normalizeEmail(email)]
	for code, id := range p.codes {
		if id == userID {
			return code
		}
	}
	return ""
}

func (p *MemoryProvider) GetSession(_ context.Context, token string) (*Session, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	sess, ok := p.sessions[token]
	if !ok {
		return nil, nil
	}
	if !p.now().Before(sess.ExpiresAt) {
		delete(p.sessions, token)
		return nil, nil
	}
	return &sess, nil
}

func (p *MemoryProvider) SignIn(_ context.Context, email, password string) (*Session, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	p.mu.Lock()
	userID, ok := p.byEmail[normalizeEmail(email)]
	var hash string
	if ok {
		hash = p.users[userID].PasswordHash
	}
	p.mu.Unlock()

	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := p.hasher.Verify(password, hash); err != nil {
		return nil, err
	}
	return p.openSession(userID), nil
}

func (p *MemoryProvider) SignUp(_ context.Context, req SignUpRequest) (*Session, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	user, err := p.newUser(models.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      models.RoleCitizen,
	}, req.Password)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if _, exists := p.byEmail[user.Email]; exists {
		p.mu.Unlock()
		return nil, ErrAccountExists
	}
	p.insertLocked(user)
	p.codes[uuid.NewString()] = user.ID
	p.mu.Unlock()

	return p.openSession(user.ID), nil
}

func (p *MemoryProvider) SignOut(_ context.Context, token string) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	_, ok := p.sessions[token]
	delete(p.sessions, token)
	p.mu.Unlock()

	if ok {
		p.events.emit(SessionEvent{Token: token})
	}
	return nil
}

func (p *MemoryProvider) ExchangeCode(_ context.Context, code string) (*Session, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	p.mu.Lock()
	userID, ok := p.codes[code]
	if ok {
		delete(p.codes, code)
		p.users[userID].EmailConfirmed = true
	}
	p.mu.Unlock()

	if !ok {
		return nil, ErrInvalidCode
	}
	return p.openSession(userID), nil
}

func (p *MemoryProvider) OnSessionChange(fn func(SessionEvent)) func() {
	return p.events.add(fn)
}

func (p *MemoryProvider) GetProfile(_ context.Context, userID string) (*models.User, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[userID]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (p *MemoryProvider) UpdateProfile(_ context.Context, userID string, update ProfileUpdate) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[userID]
	if !ok {
		return &ProviderError{Code: "user_not_found", Message: "no profile for user " + userID}
	}
	applyProfileUpdate(u, update)
	u.UpdatedAt = p.now()
	return nil
}

// Expire ends the session for token as if its lifetime had elapsed.
func (p *MemoryProvider) Expire(token string) {
	p.mu.Lock()
	delete(p.sessions, token)
	p.mu.Unlock()
	p.events.emit(SessionEvent{Token: token})
}

func (p *MemoryProvider) openSession(userID string) *Session {
	sess := Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: p.now().Add(p.ttl),
	}
	p.mu.Lock()
	p.sessions[sess.Token] = sess
	p.mu.Unlock()

	p.events.emit(SessionEvent{Token: sess.Token, Session: &sess})
	return &sess
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
