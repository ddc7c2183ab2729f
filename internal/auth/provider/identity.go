package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mysingle/auth/internal/auth/domain"
	"golang.org/x/oauth2"
)

// idTokenClaims are the standard OIDC claims we care about from an ID token.
type idTokenClaims struct {
	jwt.RegisteredClaims

	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// identityFromIDToken parses the id_token from a token set without verifying
// its signature. That is acceptable here because the token was just obtained
// directly from the provider's token endpoint over TLS, not from the client.
// Returns ok=false when there is no id_token or it carries no usable subject.
func identityFromIDToken(providerName string, token *oauth2.Token) (domain.Identity, bool) {
	raw, _ := token.Extra("id_token").(string)
	if raw == "" {
		return domain.Identity{}, false
	}

	var claims idTokenClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return domain.Identity{}, false
	}

	if claims.Subject == "" || claims.Email == "" {
		return domain.Identity{}, false
	}

	return domain.Identity{
		Provider:      providerName,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, true
}

// fetchJSON performs an authenticated GET against a provider userinfo
// endpoint and decodes the response into target.
func fetchJSON(ctx context.Context, config *oauth2.Config, token *oauth2.Token, url string, target any) error {
	ctx = withClient(ctx)
	client := config.Client(ctx, token)

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("failed to get user info: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode user info: %w", err)
	}

	return nil
}
