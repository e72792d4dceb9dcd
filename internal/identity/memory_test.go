package identity_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sulabh/backend/internal/identity"
	"sulabh/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signUpRequest(email string) identity.SignUpRequest {
	return identity.SignUpRequest{
		Email:     email,
		Password:  "secret123",
		FirstName: "Asha",
		LastName:  "Verma",
		Phone:     "+91 98100 00000",
	}
}

func TestMemoryProvider_SignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	p := identity.NewMemoryProvider(time.Hour)

	sess, err := p.SignUp(ctx, signUpRequest("Asha@Example.com "))
	require.NoError(t, err)
	require.NotNil(t, sess)

	profile, err := p.GetProfile(ctx, sess.UserID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "asha@example.com", profile.Email)
	assert.Equal(t, models.RoleCitizen, profile.Role)
	assert.NotEmpty(t, profile.PasswordHash)

	again, err := p.SignIn(ctx, "asha@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, again.UserID)
	assert.NotEqual(t, sess.Token, again.Token)

	_, err = p.SignIn(ctx, "asha@example.com", "wrong")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = p.SignIn(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestMemoryProvider_SignUpDuplicate(t *testing.T) {
	ctx := context.Background()
	p := identity.NewMemoryProvider(time.Hour)

	_, err := p.SignUp(ctx, signUpRequest("dup@example.com"))
	require.NoError(t, err)

	_, err = p.SignUp(ctx, signUpRequest("DUP@example.com"))
	assert.ErrorIs(t, err, identity.ErrAccountExists)
}

func TestMemoryProvider_ConcurrentSignUpsCreateOneAccount(t *testing.T) {
	// Arrange
	ctx := context.Background()
	p := identity.NewMemoryProvider(time.Hour)
	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup

	// Act
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.SignUp(ctx, signUpRequest("race@example.com"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	// Assert
	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, identity.ErrAccountExists)
	}
	assert.Equal(t, 1, succeeded)

	sess, err := p.SignIn(ctx, "race@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.UserID)
}

func TestMemoryProvider_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	p := identity.NewMemoryProvider(time.Hour)

	var events []identity.SessionEvent
	unsubscribe := p.OnSessionChange(func(e identity.SessionEvent) {
		events = append(events, e)
	})

	sess, err := p.SignUp(ctx, signUpRequest("life@example.com"))
	require.NoError(t, err)

	got, err := p.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.UserID, got.UserID)

	require.NoError(t, p.SignOut(ctx, sess.Token))
	got, err = p.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	// signing out twice is harmless
	require.NoError(t, p.SignOut(ctx, sess.Token))

	require.Len(t, events, 2)
	assert.NotNil(t, events[0].Session)
	assert.Nil(t, events[1].Session)
	assert.Equal(t, sess.Token, events[1].Token)

	unsubscribe()
	unsubscribe()
	_, err = p.SignIn(ctx, "life@example.com", "secret123")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestMemoryProvider_Expire(t *testing.T) {
	ctx := context.Background()
	p := identity.NewMemoryProvider(time.Hour)
	sess, err := p.SignUp(ctx, signUpRequest("exp@example.com"))
	require.NoError(t, err)

	ended := make(chan string, 1)
	p.OnSessionChange(func(e identity.SessionEvent) {
		if e.Session == nil {
			ended <- e.Token
		}
	})

	p.Expire(sess.Token)

	assert.Equal(t, sess.Token, <-ended)
	got, err := p.GetSession(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryProvider_ExchangeCode(t *testing.T) {
	ctx := context.Background()
	p := identity.NewMemoryProvider(time.Hour)
	sess, err := p.SignUp(ctx, signUpRequest("code@example.com"))
	require.NoError(t, err)

	code := p.PendingCode("code@example.com")
	require.NotEmpty(t, code)

	confirmed, err := p.ExchangeCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, confirmed.UserID)

	profile, err := p.GetProfile(ctx, sess.UserID)
	require.NoError(t, err)
	assert.True(t, profile.EmailConfirmed)

	_, err = p.ExchangeCode(ctx, code)
	assert.ErrorIs(t, err, identity.ErrInvalidCode)
}

func TestMemoryProvider_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	p := identity.NewMemoryProvider(time.Hour)
	sess, err := p.SignUp(ctx, signUpRequest("prof@example.com"))
	require.NoError(t, err)

	role := models.RoleAuthority
	dept := "Sanitation"
	require.NoError(t, p.UpdateProfile(ctx, sess.UserID, identity.ProfileUpdate{Role: &role, Department: &dept}))

	profile, err := p.GetProfile(ctx, sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAuthority, profile.Role)
	assert.Equal(t, "Sanitation", profile.Department)
	assert.Equal(t, "Asha", profile.FirstName)

	err = p.UpdateProfile(ctx, "missing", identity.ProfileUpdate{Role: &role})
	var perr *identity.ProviderError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, "user_not_found", perr.Code)

	missing, err := p.GetProfile(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryProvider_Unavailable(t *testing.T) {
	ctx := context.Background()
	p := identity.NewMemoryProvider(time.Hour)
	p.Err = errors.New("provider down")

	_, err := p.SignIn(ctx, "a@example.com", "x")
	assert.EqualError(t, err, "provider down")
	_, err = p.GetSession(ctx, "token")
	assert.EqualError(t, err, "provider down")
	assert.EqualError(t, p.SignOut(ctx, "token"), "provider down")
}
