package types

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Logger = (*slog.Logger)(nil)

func TestIsWriteForbidden(t *testing.T) {
	require.False(t, IsWriteForbidden(nil))
	require.False(t, IsWriteForbidden(errors.New("boom")))

	require.True(t, IsWriteForbidden(ErrWriteForbidden))
	require.True(t, IsWriteForbidden(fmt.Errorf("insert: %w", ErrWriteForbidden)))

	forbidden := &RequestError{StatusCode: 403, SubStatus: 3, Endpoint: "https://a/"}
	require.True(t, IsWriteForbidden(forbidden))
	require.True(t, IsWriteForbidden(fmt.Errorf("wrapped: %w", forbidden)))

	// 403 with another sub-status is an auth failure, not a failover
	require.False(t, IsWriteForbidden(&RequestError{StatusCode: 403, SubStatus: 0}))
	require.False(t, IsWriteForbidden(&RequestError{StatusCode: 429, SubStatus: 3}))
}

func TestRequestError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &RequestError{
		StatusCode: 403,
		SubStatus:  3,
		Endpoint:   "https://orders-eastus.db.example.com:443/",
		Cause:      cause,
	}

	assert.Contains(t, err.Error(), "403.3")
	assert.Contains(t, err.Error(), "orders-eastus")
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, cause)
}

func TestRetryExhaustedError(t *testing.T) {
	cause := &RequestError{StatusCode: 403, SubStatus: 3, Endpoint: "https://a/"}
	err := &RetryExhaustedError{Attempts: 120, Cause: cause}

	assert.Contains(t, err.Error(), "120 attempts")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "https://a/", reqErr.Endpoint)
	assert.True(t, IsWriteForbidden(err))
}

func TestRetryExhaustedErrorWithoutCause(t *testing.T) {
	err := &RetryExhaustedError{Attempts: 3}

	assert.Equal(t, "geodb: endpoint discovery retries exhausted after 3 attempts", err.Error())
	assert.NoError(t, err.Unwrap())
	assert.False(t, IsWriteForbidden(err))
}

func TestDatabaseAccountLocations(t *testing.T) {
	east := Location{Name: "East US", Endpoint: "https://east/"}
	west := Location{Name: "West US", Endpoint: "https://west/"}
	account := DatabaseAccount{
		ID:                "orders",
		WritableLocations: []Location{east},
		ReadableLocations: []Location{east, west},
	}

	w, ok := account.WriteLocation()
	require.True(t, ok)
	assert.Equal(t, east, w)

	l, ok := account.FindLocation("West US")
	require.True(t, ok)
	assert.Equal(t, west, l)

	_, ok = account.FindLocation("North Europe")
	assert.False(t, ok)

	_, ok = DatabaseAccount{}.WriteLocation()
	assert.False(t, ok)
}

func TestDatabaseAccountClone(t *testing.T) {
	account := DatabaseAccount{
		ID:                "orders",
		WritableLocations: []Location{{Name: "East US"}},
		ReadableLocations: []Location{{Name: "East US"}, {Name: "West US"}},
	}

	clone := account.Clone()
	clone.WritableLocations[0].Name = "changed"
	clone.ReadableLocations[1].Name = "changed"

	assert.Equal(t, "East US", account.WritableLocations[0].Name)
	assert.Equal(t, "West US", account.ReadableLocations[1].Name)
}
