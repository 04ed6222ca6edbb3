package services

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpValidation(t *testing.T) {
	dir := NewUserDirectory(nil)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "pw"},
		{"empty password", "alice", ""},
		{"slash in username", "a/lice", "pw"},
		{"backslash in username", `a\lice`, "pw"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dir.SignUp(tc.username, tc.password)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestSignUpDuplicate(t *testing.T) {
	dir := NewUserDirectory(nil)

	created, err := dir.SignUp("alice", "pw")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = dir.SignUp("alice", "other")
	require.NoError(t, err)
	assert.False(t, created, "username already taken")
}

func TestLogIn(t *testing.T) {
	dir := NewUserDirectory(nil)
	_, err := dir.SignUp("alice", "pw")
	require.NoError(t, err)

	_, err = dir.LogIn("bob", "pw")
	assert.ErrorIs(t, err, ErrUnknownUser)

	user, err := dir.LogIn("alice", "wrong")
	assert.NoError(t, err, "wrong password is a rejection, not an error")
	assert.Nil(t, user)

	user, err = dir.LogIn("alice", "pw")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.True(t, user.IsOnline())

	_, err = dir.LogIn("alice", "pw")
	assert.ErrorIs(t, err, ErrAlreadyLogged)
}

func TestLogInConcurrentSingleWinner(t *testing.T) {
	dir := NewUserDirectory(nil)
	_, err := dir.SignUp("alice", "pw")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var successes int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if user, err := dir.LogIn("alice", "pw"); err == nil && user != nil {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes, "exactly one login may win")
}

func TestGet(t *testing.T) {
	dir := NewUserDirectory(nil)
	_, err := dir.SignUp("alice", "pw")
	require.NoError(t, err)

	assert.NotNil(t, dir.Get("alice"))
	assert.Nil(t, dir.Get("bob"))
}
