package http

import (
	"net/http"

	"github.com/mysingle/auth/internal/auth/service"
	"github.com/mysingle/auth/pkg/authsdk"
	"github.com/mysingle/auth/pkg/httpx"
	"github.com/mysingle/auth/pkg/slogx"
)

// UserInfoHandler serves GET /v1/userinfo: the authenticated user's account
// as currently stored, not just what the credential carries. Requires the
// profile:read scope.
type UserInfoHandler struct {
	UserService *service.UserService
}

func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.UserService.GetUser(ctx, userID)
	if err != nil {
		log.Warn("failed to load user", "user_id", userID, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	scopes, _ := ctx.Value(httpx.CtxKeyScopes).([]string)

	response := authsdk.UserInfoResponse{
		UserID:        user.ID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		Name:          user.DisplayName,
		Picture:       user.Picture,
		Provider:      user.Provider,
		Scopes:        scopes,
		IsSuperuser:   user.IsSuperuser,
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
