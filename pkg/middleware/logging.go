package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"todolis-backend/pkg/config"
	"todolis-backend/pkg/models"

	"github.com/go-chi/chi/v5/middleware"
)

// CustomLogger 自定义日志中间件, including the permission a space token
// resolved to ("-" when the route is not token gated).
func CustomLogger(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			perm := models.Permission("-")
			ctx := context.WithValue(r.Context(), permissionSlotKey, &perm)
			next.ServeHTTP(ww, r.WithContext(ctx))

			duration := time.Since(start)
			if cfg.IsProduction() {
				logProductionRequest(r, ww, duration, perm)
			} else {
				logDevelopmentRequest(r, ww, duration, perm)
			}
		})
	}
}

// logProductionRequest 生产环境日志格式
func logProductionRequest(r *http.Request, ww middleware.WrapResponseWriter, duration time.Duration, perm models.Permission) {
	fmt.Printf(`{"time":"%s","request_id":"%s","method":"%s","path":"%s","status":%d,"duration":"%s","permission":"%s","ip":"%s"}`+"\n",
		time.Now().Format(time.RFC3339),
		middleware.GetReqID(r.Context()),
		r.Method,
		r.URL.Path,
		ww.Status(),
		duration,
		perm,
		getClientIP(r),
	)
}

// logDevelopmentRequest 开发环境日志格式
func logDevelopmentRequest(r *http.Request, ww middleware.WrapResponseWriter, duration time.Duration, perm models.Permission) {
	fmt.Printf("%s %s \033[36m%s\033[0m %s%d\033[0m %s %s %s\n",
		time.Now().Format("15:04:05"),
		getMethodColor(r.Method)+r.Method+"\033[0m",
		r.URL.Path,
		getStatusColor(ww.Status()),
		ww.Status(),
		duration,
		perm,
		getClientIP(r),
	)
}

// getClientIP 获取客户端IP地址
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func getStatusColor(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "\033[32m" // 绿色
	case status >= 300 && status < 400:
		return "\033[33m"
	case status >= 400 && status < 500:
		return "\033[31m" // 红色
	case status >= 500:
		return "\033[35m"
	default:
		return "\033[0m"
	}
}

func getMethodColor(method string) string {
	switch method {
	case http.MethodGet:
		return "\033[34m"
	case http.MethodPost:
		return "\033[32m"
	case http.MethodPut:
		return "\033[33m"
	case http.MethodDelete:
		return "\033[31m"
	default:
		return "\033[0m"
	}
}
