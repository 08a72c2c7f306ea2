// Package oauth parses the credential set delivered in an OAuth
// implicit-grant redirect fragment.
package oauth

import (
	"net/url"
	"strings"
)

// DefaultTokenType is used when the redirect fragment carries an access
// token but no token_type pair.
const DefaultTokenType = "Bearer"

// Credentials is the key/value credential set parsed from the redirect
// fragment (access_token, token_type, instance_url, issued_at, id, ...).
// It is populated once at session construction and owned by a single
// session; the only supported mutation is the instance URL override.
type Credentials struct {
	values map[string]string
}

// Parse extracts the fragment of an OAuth redirect URL into a credential
// set. Pairs are split on "&" and percent-decoded; a pair without "=" maps
// to the empty string; duplicate keys resolve to the last occurrence.
//
// A URL without a fragment yields an empty set. Callers are expected to
// arrive via a genuine implicit-grant redirect, so an absent fragment is
// not an error: subsequent requests simply fail authentication on the
// service side.
func Parse(redirectURL string) *Credentials {
	c := &Credentials{values: make(map[string]string)}

	idx := strings.Index(redirectURL, "#")
	if idx < 0 {
		return c
	}

	for _, pair := range strings.Split(redirectURL[idx+1:], "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		c.values[key] = value
	}

	return c
}

// Get returns the raw credential value for key, or the empty string.
func (c *Credentials) Get(key string) string {
	return c.values[key]
}

// Len returns the number of parsed credential pairs.
func (c *Credentials) Len() int {
	return len(c.values)
}

// AccessToken returns the granted access token, if any. Presence is not
// validated eagerly; a missing token surfaces as a service-side 401.
func (c *Credentials) AccessToken() string {
	return c.values["access_token"]
}

// TokenType returns the token type used in the Authorization header,
// defaulting to Bearer when the fragment did not carry one.
func (c *Credentials) TokenType() string {
	if t := c.values["token_type"]; t != "" {
		return t
	}
	return DefaultTokenType
}

// InstanceURL returns the API instance endpoint granted with the token.
func (c *Credentials) InstanceURL() string {
	return c.values["instance_url"]
}

// SetInstanceURL replaces the parsed instance endpoint. This is the
// construction-time override; credentials are otherwise immutable for the
// session's lifetime.
func (c *Credentials) SetInstanceURL(instanceURL string) {
	c.values["instance_url"] = instanceURL
}

// IssuedAt returns the token issue timestamp as reported by the server.
func (c *Credentials) IssuedAt() string {
	return c.values["issued_at"]
}

// ID returns the identity URL of the token grant.
func (c *Credentials) ID() string {
	return c.values["id"]
}
