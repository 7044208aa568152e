package authsdk

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Cookie names used by the service.
const (
	SessionCookie  = "tabgate_session"
	RememberCookie = "tabgate_remember"
	CSRFCookie     = "tabgate_csrf"
)

// SDKClient talks to a tabgate service the way a browser does: the session,
// remember-me, challenge and CSRF state all live in its cookie jar.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with its own cookie jar. Redirects are not
// followed so Login can report where the service sent the user.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil)
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Cookie returns the value of a cookie the service set for this client.
func (c *SDKClient) Cookie(name string) string {
	if c.HTTPClient.Jar == nil {
		return ""
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// ForgetSession drops the session cookie, keeping any remember-me cookie,
// as a browser does when it is restarted.
func (c *SDKClient) ForgetSession() {
	if c.HTTPClient.Jar == nil {
		return
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return
	}
	c.HTTPClient.Jar.SetCookies(u, []*http.Cookie{{Name: SessionCookie, Path: "/", MaxAge: -1}})
}
