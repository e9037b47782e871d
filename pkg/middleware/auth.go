package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"todolis-backend/pkg/models"
	"todolis-backend/pkg/services"
	"todolis-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// ContextKey 用于在context中存储访问级别的键
type ContextKey string

const (
	PermissionContextKey ContextKey = "space_permission"
	permissionSlotKey    ContextKey = "space_permission_slot"
)

// SpaceAuthorizer resolves a token against the space named in the route.
type SpaceAuthorizer interface {
	Authorize(ctx context.Context, spaceID, token string, required models.Permission) (models.Permission, string, error)
}

// RequireSpaceToken 空间令牌认证中间件
// The route must carry {space_id}. On success the resolved permission is
// stored in the request context.
func RequireSpaceToken(auth SpaceAuthorizer, required models.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			spaceID := chi.URLParam(r, "space_id")
			perm, _, err := auth.Authorize(r.Context(), spaceID, utils.SpaceToken(r), required)
			if err != nil {
				switch {
				case errors.Is(err, services.ErrUnauthorized):
					utils.WriteUnauthorizedResponse(w, err.Error())
				case errors.Is(err, services.ErrNotFound):
					utils.WriteNotFoundResponse(w, err.Error())
				default:
					fmt.Printf("❌ Auth middleware: %v\n", err)
					utils.WriteInternalServerErrorResponse(w, err.Error())
				}
				return
			}

			if slot, ok := r.Context().Value(permissionSlotKey).(*models.Permission); ok {
				*slot = perm
			}
			ctx := context.WithValue(r.Context(), PermissionContextKey, perm)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PermissionFromContext 从context中获取访问级别
func PermissionFromContext(ctx context.Context) (models.Permission, bool) {
	perm, ok := ctx.Value(PermissionContextKey).(models.Permission)
	return perm, ok
}
