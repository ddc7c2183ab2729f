package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// User operations - standard user-facing operations

// ============================================================================
// User Information
// ============================================================================

// GetUserInfo retrieves user information for the authenticated session.
// Requires: profile:read scope
func (s *Session) GetUserInfo(ctx context.Context) (*UserInfoResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/userinfo", nil, nil, "profile:read")
	if err != nil {
		return nil, err
	}

	var userInfo UserInfoResponse
	if err := decodeJSON(resp, &userInfo, http.StatusOK); err != nil {
		return nil, err
	}

	return &userInfo, nil
}

// ============================================================================
// Session Operations
// ============================================================================

// IntrospectSession introspects a session credential per RFC 7662.
// Requires: authenticated session (no specific scope required)
func (s *Session) IntrospectSession(ctx context.Context, credential string) (*IntrospectionResponse, error) {
	data := url.Values{
		"token": {credential},
	}

	headers := map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	}

	resp, err := s.doAuthRequest(
		ctx,
		http.MethodPost,
		"/v1/sessions/introspect",
		strings.NewReader(data.Encode()),
		headers,
	)
	if err != nil {
		return nil, err
	}

	var introspectResp IntrospectionResponse
	if err := decodeJSON(resp, &introspectResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &introspectResp, nil
}

// Logout terminates the session server-side. In store mode this revokes the
// session record immediately; in jwt mode the credential simply ages out but
// the cookie is cleared for browser clients.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/logout", nil, nil)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}
