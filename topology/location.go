package topology

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/arloliu/geodb/types"
)

// LocationalEndpoint derives a region's endpoint from the account's global endpoint.
//
// The region name, with spaces removed, is appended to the first DNS label:
// "https://orders.db.example.com:443/" and "East US" give
// "https://orders-EastUS.db.example.com:443/".
//
// Parameters:
//   - defaultEndpoint: The global account endpoint
//   - location: The region name
//
// Returns:
//   - string: The regional endpoint
//   - error: Error if defaultEndpoint is not an absolute URL
func LocationalEndpoint(defaultEndpoint, location string) (string, error) {
	u, err := url.Parse(defaultEndpoint)
	if err != nil {
		return "", fmt.Errorf("geodb/topology: invalid endpoint %q: %w", defaultEndpoint, err)
	}

	host := u.Hostname()
	if u.Scheme == "" || host == "" {
		return "", fmt.Errorf("geodb/topology: endpoint %q must be an absolute URL", defaultEndpoint)
	}

	account, domain, hasDomain := strings.Cut(host, ".")
	regional := account + "-" + strings.ReplaceAll(location, " ", "")
	if hasDomain {
		regional += "." + domain
	}

	if port := u.Port(); port != "" {
		regional = net.JoinHostPort(regional, port)
	}
	u.Host = regional

	return u.String(), nil
}

// promote returns a copy of account with the named location as sole writer.
func promote(account types.DatabaseAccount, name string) (types.DatabaseAccount, error) {
	loc, ok := account.FindLocation(name)
	if !ok {
		return types.DatabaseAccount{}, fmt.Errorf("%w: %q", types.ErrUnknownLocation, name)
	}

	out := account.Clone()
	out.WritableLocations = []types.Location{loc}

	return out, nil
}

// locationCache resolves endpoints from the last known account topology.
//
// Not safe for concurrent use; Manager guards it.
type locationCache struct {
	defaultEndpoint string
	preferred       []string
	account         types.DatabaseAccount
	known           bool
}

func (c *locationCache) writeEndpoint() string {
	if loc, ok := c.account.WriteLocation(); ok && loc.Endpoint != "" {
		return loc.Endpoint
	}

	return c.defaultEndpoint
}

func (c *locationCache) readEndpoint() string {
	for _, name := range c.preferred {
		for _, loc := range c.account.ReadableLocations {
			if loc.Name == name && loc.Endpoint != "" {
				return loc.Endpoint
			}
		}
	}

	for _, loc := range c.account.ReadableLocations {
		if loc.Endpoint != "" {
			return loc.Endpoint
		}
	}

	return c.writeEndpoint()
}

// candidates lists the endpoints to ask for the account topology, in order.
func (c *locationCache) candidates() []string {
	out := []string{c.defaultEndpoint}
	for _, name := range c.preferred {
		endpoint, err := LocationalEndpoint(c.defaultEndpoint, name)
		if err != nil {
			continue
		}
		out = append(out, endpoint)
	}

	return out
}
