package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// PKCE code challenge methods per RFC 7636.
const (
	PKCEMethodS256  = "S256"
	PKCEMethodPlain = "plain"
)

// NewCodeVerifier generates a PKCE code verifier with 256 bits of entropy.
// The result is base64url-encoded (43 chars), which satisfies the RFC 7636
// 43..128 character requirement.
func NewCodeVerifier() (string, error) {
	return GenerateToken(TokenSize256)
}

// ChallengeS256 derives the S256 code challenge for a verifier.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyCodeVerifier checks a PKCE code verifier against a stored challenge
// using constant-time comparison. An empty challenge means PKCE was not
// required for the request and any verifier is accepted.
func VerifyCodeVerifier(challenge, method, verifier string) bool {
	if challenge == "" {
		return true
	}
	if verifier == "" {
		return false
	}

	switch method {
	case PKCEMethodPlain:
		return subtle.ConstantTimeCompare([]byte(challenge), []byte(verifier)) == 1
	case PKCEMethodS256, "":
		computed := ChallengeS256(verifier)
		return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
	default:
		return false
	}
}
