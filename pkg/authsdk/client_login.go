package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// GetLoginPage fetches the login form data. It also primes the CSRF cookie
// used by every later form submission.
func (c *SDKClient) GetLoginPage(ctx context.Context) (*LoginPageResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/login", nil, nil)
	if err != nil {
		return nil, err
	}

	var page LoginPageResponse
	if err := decodeJSON(resp, &page, http.StatusOK); err != nil {
		return nil, err
	}

	return &page, nil
}

// Login submits the login form and returns the path the service redirected
// to. A *TOTPRequiredError means the password was accepted and SubmitTOTP
// must follow.
func (c *SDKClient) Login(ctx context.Context, email, password string, rememberMe bool) (string, error) {
	page, err := c.GetLoginPage(ctx)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"email":       {email},
		"password":    {password},
		"_csrf_token": {page.CSRFToken},
	}
	if rememberMe {
		form.Set("_remember_me", "on")
	}

	resp, err := c.doForm(ctx, "/login", form)
	if err != nil {
		return "", err
	}
	return redirectTarget(resp)
}

// SubmitTOTP completes a pending challenge and returns the redirect path.
func (c *SDKClient) SubmitTOTP(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"code":        {code},
		"_csrf_token": {c.Cookie(CSRFCookie)},
	}

	resp, err := c.doForm(ctx, "/login/2fa", form)
	if err != nil {
		return "", err
	}
	return redirectTarget(resp)
}

// Logout ends the session and forgets the remember-me series.
func (c *SDKClient) Logout(ctx context.Context) error {
	resp, err := c.doForm(ctx, "/logout", url.Values{"_csrf_token": {c.Cookie(CSRFCookie)}})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// GetSession describes the current session.
func (c *SDKClient) GetSession(ctx context.Context) (*SessionResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/session", nil, nil)
	if err != nil {
		return nil, err
	}

	var sess SessionResponse
	if err := decodeJSON(resp, &sess, http.StatusOK); err != nil {
		return nil, err
	}

	return &sess, nil
}

func redirectTarget(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusSeeOther {
		if err := parseErrorResponse(resp, body); err != nil {
			return "", err
		}
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Header.Get("Location"), nil
}
