package server

import (
	"fmt"
	"net/http"

	"todolis-backend/pkg/config"
	"todolis-backend/pkg/database"
	"todolis-backend/pkg/handlers"
	customMiddleware "todolis-backend/pkg/middleware"
	"todolis-backend/pkg/models"
	"todolis-backend/pkg/services"
	"todolis-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter 将所有API端点集中在一个Chi路由器中管理
func NewRouter(cfg *config.Config, svc *services.Services, db database.DatabaseInterface) *chi.Mux {
	router := chi.NewRouter()
	setupMiddleware(router, cfg)
	setupRoutes(router, cfg, svc, db)
	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, cfg *config.Config) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.CustomLogger(cfg))
	router.Use(customMiddleware.Recovery(cfg))

	router.Use(customMiddleware.CORS(cfg))

	// 超时中间件（Vercel函数有时间限制）
	router.Use(middleware.Timeout(cfg.RequestTimeout))
	router.Use(middleware.Compress(5))

	router.Use(customMiddleware.MaxBodySize(cfg.MaxBodyBytes))
	router.Use(customMiddleware.ContentTypeJSON)

	// 开发环境额外中间件
	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes 设置所有API路由
func setupRoutes(router *chi.Mux, cfg *config.Config, svc *services.Services, db database.DatabaseInterface) {
	healthHandler := handlers.NewHealthHandler(cfg, db)
	spacesHandler := handlers.NewSpacesHandler(cfg, svc)
	goalsHandler := handlers.NewGoalsHandler(cfg, svc.Goals)
	commentsHandler := handlers.NewCommentsHandler(cfg, svc.Comments)

	router.Get("/", healthHandler.Health)

	// 数据库连接池状态端点（调试用）
	if pool, ok := db.(*database.Pool); ok && cfg.IsDevelopment() {
		router.Get("/debug/db-pool", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteSuccessResponse(w, pool.Stats())
		})
	}

	// 旧版路径 are the verb-suffixed routes ("/api/spaces/add/"); Normalize
	// strips their trailing slash.
	router.Route("/api", func(r chi.Router) {
		r.Route("/spaces", func(r chi.Router) {
			r.Post("/", spacesHandler.CreateSpace)
			r.Post("/add", spacesHandler.CreateSpace)
			r.Route("/{space_id}", func(r chi.Router) {
				r.Get("/", spacesHandler.GetSpace)
				r.Get("/get", spacesHandler.GetSpace)
				// edit token, checked by the service before validation
				r.Put("/", spacesHandler.UpdateSpace)
				r.Put("/update", spacesHandler.UpdateSpace)
				r.With(customMiddleware.RequireSpaceToken(svc.Auth, models.PermissionView)).
					Get("/summary", spacesHandler.GetSummary)
				r.Get("/permission", spacesHandler.GetPermission)
				r.Post("/goals", goalsHandler.CreateGoal)
			})
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/list/{space_id}", spacesHandler.ListGoals)
			r.Get("/list/{space_id}/get", spacesHandler.ListGoals)
			r.Post("/{space_id}/add", goalsHandler.CreateGoal)

			r.Put("/{goal_id}", goalsHandler.UpdateGoal)
			r.Put("/{goal_id}/update", goalsHandler.UpdateGoal)
			r.Delete("/{goal_id}", goalsHandler.CloseGoal)
			r.Delete("/{goal_id}/close", goalsHandler.CloseGoal)

			r.Get("/{goal_id}/comments", commentsHandler.ListComments)
			r.Get("/{goal_id}/comments/get", commentsHandler.ListComments)
			r.Post("/{goal_id}/comments", commentsHandler.AddComment)
			r.Post("/{goal_id}/comments/add", commentsHandler.AddComment)

			r.Get("/{goal_id}/reactions", commentsHandler.ListReactions)
			r.Get("/{goal_id}/reactions/get", commentsHandler.ListReactions)
			r.Post("/{goal_id}/reactions", commentsHandler.AddReaction)
			r.Post("/{goal_id}/reactions/add", commentsHandler.AddReaction)
		})
	})

	// 404处理
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	// 405处理
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path), "")
	})
}
