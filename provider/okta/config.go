package okta

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the settings for validating Okta-issued JWTs.
type Config struct {
	// Domain is the Okta org domain, e.g. "dev-123456.okta.com". Issuer is
	// derived from it unless set explicitly.
	Domain string
	// Issuer overrides the derived issuer URL.
	Issuer string
	// Audience values the token must carry. Optional.
	Audience []string
	// RefreshInterval bounds how long fetched signing keys are reused before
	// a background refresh. Defaults to 10 minutes.
	RefreshInterval time.Duration
	// RefreshTimeout bounds a single JWKS fetch so a slow identity provider
	// cannot hang request handling. Defaults to 10 seconds.
	RefreshTimeout time.Duration
}

func (c Config) issuerURL() string {
	if c.Issuer != "" {
		return strings.TrimRight(c.Issuer, "/")
	}
	if c.Domain == "" {
		return ""
	}
	return fmt.Sprintf("https://%s/oauth2/default", c.Domain)
}

func (c Config) jwksURL() string {
	issuer := c.issuerURL()
	if issuer == "" {
		return ""
	}
	return issuer + "/v1/keys"
}

func (c Config) refreshInterval() time.Duration {
	if c.RefreshInterval > 0 {
		return c.RefreshInterval
	}
	return 10 * time.Minute
}

func (c Config) refreshTimeout() time.Duration {
	if c.RefreshTimeout > 0 {
		return c.RefreshTimeout
	}
	return 10 * time.Second
}
