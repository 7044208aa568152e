package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// EnableTOTP starts enrollment and returns the unconfirmed secret.
func (c *SDKClient) EnableTOTP(ctx context.Context) (*TOTPEnrollResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/2fa/enable", nil, nil)
	if err != nil {
		return nil, err
	}

	var enroll TOTPEnrollResponse
	if err := decodeJSON(resp, &enroll, http.StatusOK); err != nil {
		return nil, err
	}

	return &enroll, nil
}

// GetTOTPQRCode returns the provisioning QR code as PNG bytes.
func (c *SDKClient) GetTOTPQRCode(ctx context.Context, size int) ([]byte, error) {
	path := "/v1/2fa/qr-code"
	if size > 0 {
		path += "?size=" + strconv.Itoa(size)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if err := parseErrorResponse(resp, body); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// ConfirmTOTP turns on two-factor login with a code from the new secret.
func (c *SDKClient) ConfirmTOTP(ctx context.Context, code string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/2fa/confirm", TOTPCodeRequest{Code: code})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}

// DisableTOTP turns off two-factor login. A current code is required.
func (c *SDKClient) DisableTOTP(ctx context.Context, code string) error {
	resp, err := c.doJSON(ctx, http.MethodDelete, "/v1/2fa", TOTPCodeRequest{Code: code})
	if err != nil {
		return err
	}
	return checkStatus(resp, http.StatusNoContent)
}
