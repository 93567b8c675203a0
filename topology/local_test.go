package topology

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/geodb/types"
)

const testEndpoint = "https://orders.db.example.com:443/"

func twoRegionAccount() types.DatabaseAccount {
	east := types.Location{Name: "East US", Endpoint: "https://orders-EastUS.db.example.com:443/"}
	west := types.Location{Name: "West US", Endpoint: "https://orders-WestUS.db.example.com:443/"}

	return types.DatabaseAccount{
		ID:                "orders",
		WritableLocations: []types.Location{east},
		ReadableLocations: []types.Location{east, west},
	}
}

func TestNewLocal(t *testing.T) {
	account := twoRegionAccount()
	local := NewLocal(account)
	require.NotNil(t, local)

	// Mutating the caller's copy must not leak in
	account.WritableLocations[0].Name = "mutated"

	got, err := local.ReadAccount(t.Context(), testEndpoint)
	require.NoError(t, err)
	assert.Equal(t, "East US", got.WritableLocations[0].Name)
	assert.Equal(t, 1, local.Reads())
	assert.Equal(t, []string{testEndpoint}, local.Endpoints())
}

func TestLocalFailover(t *testing.T) {
	local := NewLocal(twoRegionAccount())

	require.NoError(t, local.Failover(t.Context(), "West US"))

	write, ok := local.Account().WriteLocation()
	require.True(t, ok)
	assert.Equal(t, "West US", write.Name)
	assert.Len(t, local.Account().WritableLocations, 1)
	assert.Len(t, local.Account().ReadableLocations, 2)
}

func TestLocalFailoverUnknownLocation(t *testing.T) {
	local := NewLocal(twoRegionAccount())

	err := local.Failover(t.Context(), "North Europe")
	require.ErrorIs(t, err, types.ErrUnknownLocation)

	write, _ := local.Account().WriteLocation()
	assert.Equal(t, "East US", write.Name)
}

func TestLocalReadErrors(t *testing.T) {
	local := NewLocal(twoRegionAccount())
	globalErr := errors.New("service unavailable")
	endpointErr := errors.New("connection refused")

	local.SetReadError(globalErr)
	local.SetEndpointError(testEndpoint, endpointErr)

	_, err := local.ReadAccount(t.Context(), testEndpoint)
	require.ErrorIs(t, err, endpointErr)

	_, err = local.ReadAccount(t.Context(), "https://other/")
	require.ErrorIs(t, err, globalErr)

	local.SetEndpointError(testEndpoint, nil)
	local.SetReadError(nil)

	_, err = local.ReadAccount(t.Context(), testEndpoint)
	require.NoError(t, err)
	assert.Equal(t, 3, local.Reads())
}

func TestLocalReadCancelled(t *testing.T) {
	local := NewLocal(twoRegionAccount())

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := local.ReadAccount(ctx, testEndpoint)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalSetAccount(t *testing.T) {
	local := NewLocal(types.DatabaseAccount{})
	local.SetAccount(twoRegionAccount())

	got, err := local.ReadAccount(t.Context(), testEndpoint)
	require.NoError(t, err)
	assert.Equal(t, "orders", got.ID)
}

func TestLocationalEndpoint(t *testing.T) {
	cases := []struct {
		endpoint string
		location string
		want     string
	}{
		{testEndpoint, "East US", "https://orders-EastUS.db.example.com:443/"},
		{"https://orders.db.example.com/", "West Europe", "https://orders-WestEurope.db.example.com/"},
		{"https://localhost:8081/", "East US", "https://localhost-EastUS:8081/"},
	}

	for _, tc := range cases {
		got, err := LocationalEndpoint(tc.endpoint, tc.location)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := LocationalEndpoint("orders.db.example.com", "East US")
	require.Error(t, err)

	_, err = LocationalEndpoint("://bad", "East US")
	require.Error(t, err)
}

func TestLocationCacheResolution(t *testing.T) {
	cache := locationCache{
		defaultEndpoint: testEndpoint,
		preferred:       []string{"West US", "East US"},
	}

	// Unknown topology resolves to the default endpoint
	assert.Equal(t, testEndpoint, cache.writeEndpoint())
	assert.Equal(t, testEndpoint, cache.readEndpoint())

	cache.account = twoRegionAccount()
	cache.known = true

	assert.Equal(t, "https://orders-EastUS.db.example.com:443/", cache.writeEndpoint())
	assert.Equal(t, "https://orders-WestUS.db.example.com:443/", cache.readEndpoint())

	// No preferred match falls back to the first readable location
	cache.preferred = []string{"North Europe"}
	assert.Equal(t, "https://orders-EastUS.db.example.com:443/", cache.readEndpoint())
}

func TestLocationCacheCandidates(t *testing.T) {
	cache := locationCache{
		defaultEndpoint: testEndpoint,
		preferred:       []string{"West US", "East US"},
	}

	assert.Equal(t, []string{
		testEndpoint,
		"https://orders-WestUS.db.example.com:443/",
		"https://orders-EastUS.db.example.com:443/",
	}, cache.candidates())
}
