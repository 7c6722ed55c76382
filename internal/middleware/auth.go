package middleware

import (
	"errors"
	"net/http"

	"github.com/SeakMengs/certportal/internal/auth"
	"github.com/SeakMengs/certportal/internal/constant"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/gin-gonic/gin"
)

const AdminContextKey = "admin"

func (m Middleware) AuthMiddleware(ctx *gin.Context) {
	token, err := util.ReadBearerToken(ctx)
	if err != nil {
		m.app.Logger.Debugf("Failed to read token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "", util.GenerateErrorMessages(err, "unauthorized"), nil)
		return
	}

	claim, err := m.app.JWTService.VerifyJwtToken(token)
	if err != nil {
		m.app.Logger.Debugf("Failed to verify token: %v", err)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid token", util.GenerateErrorMessages(err, "unauthorized"), nil)
		return
	}

	if claim.Type != constant.JWT_TYPE_ACCESS {
		m.app.Logger.Debugf("Invalid token type: %s", claim.Type)
		util.ResponseFailed(ctx, http.StatusUnauthorized, "Invalid access token type", util.GenerateErrorMessages(errors.New("expected an access token"), "unauthorized"), nil)
		return
	}

	if claim.Admin.Role != auth.RoleAdmin {
		util.ResponseFailed(ctx, http.StatusForbidden, "", util.GenerateErrorMessages(errors.New("admin role required"), "forbidden"), nil)
		return
	}

	ctx.Set(AdminContextKey, claim.Admin)
	ctx.Next()
}
