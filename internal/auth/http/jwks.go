package http

import (
	"net/http"

	"github.com/mysingle/auth/pkg/authsdk"
	"github.com/mysingle/auth/pkg/httpx"
	"github.com/mysingle/auth/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set so resource services can verify
// session credentials without sharing private key material.
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
