/*
Package authsdk provides a client SDK for interacting with the mysingle auth service.

# Overview

The auth service owns the browser login flow: users are redirected to an
upstream identity provider (Google, Kakao, Naver, or any OIDC provider) and
come back with a short-lived session credential. This SDK covers what
sibling services need around that flow:

  - verifying session credentials locally via the published JWKS
  - calling the userinfo, introspection, and logout endpoints
  - admin key-rotation operations
  - health and readiness probes

# Verifying credentials in a resource service

Most services only need the RemoteVerifier. It fetches the auth service's
public keys once, caches them, and refetches when it sees an unknown key
id (which happens right after a rotation):

	client := authsdk.NewSDKClient("https://auth.mysingle.io")
	verifier, err := authsdk.NewRemoteVerifier(
		ctx, client, jwtx.AlgorithmEdDSA, "mysingle-auth", []string{"mysingle-api"},
	)
	if err != nil {
		log.Fatal(err)
	}

RemoteVerifier satisfies jwtx.Verifier, so it plugs straight into the
authentication middleware:

	mux.Handle("/v1/things", httpx.Chain(thingsHandler,
		httpx.AuthnMiddleware(verifier),
		httpx.RequireAnyScope("profile:read"),
	))

# Calling the auth service with an existing credential

A credential obtained from the login flow (usually out of the session
cookie) can be wrapped into a Session for authenticated calls:

	session := client.NewSessionFromCredential(credential, scopes, expiresAt)

	info, err := session.GetUserInfo(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Logged in as: %s\n", info.Email)

Session credentials are short-lived by design and are never refreshed by
the SDK. When Session.Expired reports true, send the user back through the
login flow.

# Error Handling

API errors are returned as *OAuth2Error with the RFC 6749 error code and
HTTP status preserved:

	if _, err := session.GetUserInfo(ctx); err != nil {
		var oauthErr *authsdk.OAuth2Error
		if errors.As(err, &oauthErr) && oauthErr.Code == authsdk.ErrorCodeInvalidToken {
			// credential expired or revoked, re-run login
		}
	}

Scope checks can also fail client-side before any request is sent; disable
this with SDKClient.CheckScopes = false when you want the server to be the
sole authority (e.g. in integration tests).
*/
package authsdk
