package authsdk

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultCookieName is the session cookie the service sets unless it is
// configured otherwise.
const DefaultCookieName = "fitra.session-token"

// SDKClient is a client for the Fitra authentication service. It keeps the
// session cookie in its own jar.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// CookieName is the session cookie SessionToken looks for.
	CookieName string

	mu     sync.RWMutex
	bearer string
}

// NewSDKClient creates a client with an empty cookie jar.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil) // only errors on a bad PublicSuffixList

	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
		CookieName: DefaultCookieName,
	}
}

// SetBearerToken sends token as an Authorization header on every request.
// An empty token switches back to cookies only.
func (c *SDKClient) SetBearerToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bearer = token
}

func (c *SDKClient) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bearer
}

// SessionToken returns the session cookie held for BaseURL, or "" when
// the client is signed out.
func (c *SDKClient) SessionToken() string {
	if c.HTTPClient == nil || c.HTTPClient.Jar == nil {
		return ""
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}

	for _, cookie := range c.HTTPClient.Jar.Cookies(u) {
		if cookie.Name == c.CookieName {
			return cookie.Value
		}
	}
	return ""
}
