package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusInProgress, StatusCompleted, StatusRejected} {
		assert.True(t, ValidStatus(s), s)
	}
	for _, s := range []string{"", "done", "PENDING", "archived"} {
		assert.False(t, ValidStatus(s), s)
	}
}

func TestHasAnyRole(t *testing.T) {
	alice := &Principal{Username: "alice", Roles: []string{"admin", "user"}}
	bob := &Principal{Username: "bob", Roles: []string{"user"}}

	assert.True(t, alice.HasAnyRole("admin"))
	assert.True(t, alice.HasAnyRole("user"))
	assert.True(t, bob.HasAnyRole("admin", "user"))
	assert.False(t, bob.HasAnyRole("admin"))
	assert.False(t, bob.HasAnyRole())

	var nobody *Principal
	assert.False(t, nobody.HasAnyRole("user"))
}

func TestDomainErrors(t *testing.T) {
	assert.True(t, IsDomainError(ErrTaskNotFound, ErrCodeNotFound))
	assert.True(t, IsDomainError(ErrTaskTitleTaken, ErrCodeConflict))
	assert.False(t, IsDomainError(errors.New("plain"), ErrCodeNotFound))

	wrapped := WrapError(ErrCodeUnavailable, "database service unavailable", errors.New("dial tcp: refused"))
	assert.True(t, IsDomainError(wrapped, ErrCodeUnavailable))
	assert.ErrorContains(t, wrapped, "database service unavailable")
}
