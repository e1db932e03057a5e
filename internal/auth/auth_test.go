package auth

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradepeer/tradepeer-api/internal/database"
	"github.com/tradepeer/tradepeer-api/internal/types"
)

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService("test-secret", setupTestDB(t))
}

func TestSignUp_Validation(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name    string
		req     SignUpRequest
		message string
	}{
		{
			"missing fields",
			SignUpRequest{Email: "a@b.test"},
			"All fields are required",
		},
		{
			"username too short",
			SignUpRequest{Email: "a@b.test", Password: "secret1", Username: "ab"},
			"Username must be between 3 and 20 characters",
		},
		{
			"username too long",
			SignUpRequest{Email: "a@b.test", Password: "secret1", Username: strings.Repeat("a", 21)},
			"Username must be between 3 and 20 characters",
		},
		{
			"username bad charset",
			SignUpRequest{Email: "a@b.test", Password: "secret1", Username: "bad name!"},
			"Username can only contain letters, numbers, and underscores",
		},
		{
			"password too short",
			SignUpRequest{Email: "a@b.test", Password: "12345", Username: "gooduser"},
			"Password must be at least 6 characters",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SignUp(tc.req)
			require.Error(t, err)
			assert.True(t, types.IsValidation(err))
			assert.EqualError(t, err, tc.message)
		})
	}
}

func TestSignUp_CreatesProfile(t *testing.T) {
	svc := newTestService(t)

	profile, err := svc.SignUp(SignUpRequest{
		Email:    "alice@example.test",
		Password: "secret1",
		Username: "alice_trades",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, profile.ProfileID)
	assert.Equal(t, "alice_trades", profile.Username)
	assert.NotEqual(t, "secret1", profile.PasswordHash, "password stored hashed")

	stored, err := svc.GetProfileByUsername("alice_trades")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, profile.ProfileID, stored.ProfileID)
}

func TestSignUp_DuplicateUsernameAndEmail(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SignUp(SignUpRequest{
		Email:    "alice@example.test",
		Password: "secret1",
		Username: "alice_trades",
	})
	require.NoError(t, err)

	_, err = svc.SignUp(SignUpRequest{
		Email:    "other@example.test",
		Password: "secret1",
		Username: "alice_trades",
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Username is already taken")

	_, err = svc.SignUp(SignUpRequest{
		Email:    "alice@example.test",
		Password: "secret1",
		Username: "alice_again",
	})
	require.Error(t, err)
	assert.EqualError(t, err, "An account with this email already exists")
}

func TestSignIn(t *testing.T) {
	svc := newTestService(t)

	profile, err := svc.SignUp(SignUpRequest{
		Email:    "alice@example.test",
		Password: "secret1",
		Username: "alice_trades",
	})
	require.NoError(t, err)

	token, err := svc.SignIn(SignInRequest{
		Email:    "alice@example.test",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token.Token)
	assert.Equal(t, profile.ProfileID, token.UserID)
	assert.Equal(t, "alice_trades", token.Username)

	// Claims round-trip through validation
	claims, err := svc.ValidateToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, profile.ProfileID, claims.UserID)
	assert.Equal(t, "alice_trades", claims.Username)
}

func TestSignIn_BadCredentials(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SignUp(SignUpRequest{
		Email:    "alice@example.test",
		Password: "secret1",
		Username: "alice_trades",
	})
	require.NoError(t, err)

	_, err = svc.SignIn(SignInRequest{Email: "alice@example.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email yields the same error as a wrong password
	_, err = svc.SignIn(SignInRequest{Email: "nobody@example.test", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.SignIn(SignInRequest{Email: "", Password: ""})
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)

	// Token signed with a different secret
	other := NewService("other-secret", setupTestDB(t))
	_, err = other.SignUp(SignUpRequest{
		Email:    "bob@example.test",
		Password: "secret1",
		Username: "bob_trades",
	})
	require.NoError(t, err)
	token, err := other.SignIn(SignInRequest{Email: "bob@example.test", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token.Token)
	assert.Error(t, err)
}
