package authsdk

import (
	"context"
	"net/http"
)

// Register creates an account.
func (c *SDKClient) Register(ctx context.Context, email, password string) (*UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/users", RegisterRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}

	return &user, nil
}

// ChangePassword replaces the caller's password. Every remember-me series of
// the account is revoked.
func (c *SDKClient) ChangePassword(ctx context.Context, current, next string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/password", ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}
