/*
Package authsdk provides a client SDK for the tabgate login service.

# Overview

The service is cookie based: a session cookie, an optional remember-me cookie,
a short-lived challenge cookie while a TOTP code is outstanding, and a CSRF
cookie echoed back on every form post. SDKClient keeps all of them in its own
cookie jar, so one client behaves like one browser.

	client := authsdk.NewSDKClient("https://login.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Create an account
	user, err := client.Register(ctx, "alice@example.com", "correct horse battery staple")

# Logging In

Login fetches the login page for a CSRF token, posts the form and returns the
path the service redirected to. Accounts with two-factor authentication return
a *TOTPRequiredError instead:

	target, err := client.Login(ctx, email, password, true)
	var totpErr *authsdk.TOTPRequiredError
	if errors.As(err, &totpErr) {
		target, err = client.SubmitTOTP(ctx, code)
	}

# Two-Factor Enrollment

Enrollment needs a fully authenticated session:

	enroll, err := client.EnableTOTP(ctx)
	// add enroll.URI (or the PNG from GetTOTPQRCode) to an authenticator app
	err = client.ConfirmTOTP(ctx, codeFromApp)

# Error Handling

Non-2xx responses become *APIError values carrying the service's error code.
They compare by code:

	_, err := client.Login(ctx, email, "wrong", false)
	if errors.Is(err, &authsdk.APIError{Code: authsdk.ErrorCodeRateLimited}) {
		var apiErr *authsdk.APIError
		errors.As(err, &apiErr)
		time.Sleep(apiErr.RetryAfter)
	}

# Thread Safety

An SDKClient may be used from several goroutines, but they share one cookie
jar and therefore one session.
*/
package authsdk
