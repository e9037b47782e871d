package middleware

import (
	"net/http"

	"todolis-backend/pkg/config"

	"github.com/go-chi/cors"
)

// CORS 创建CORS中间件
func CORS(cfg *config.Config) func(http.Handler) http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"If-Match",
			"X-Requested-With",
		},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         300, // 5分钟
	}

	// 开发环境允许所有来源
	if cfg.IsDevelopment() {
		corsOptions.AllowedOrigins = []string{"*"}
	}

	// 只有在非通配符来源时才允许凭据
	if len(corsOptions.AllowedOrigins) > 0 && corsOptions.AllowedOrigins[0] != "*" {
		corsOptions.AllowCredentials = true
	}

	return cors.Handler(corsOptions)
}
