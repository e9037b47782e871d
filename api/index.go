package handler

import (
	"context"
	"net/http"
	"sync"

	"todolis-backend/pkg/config"
	"todolis-backend/pkg/server"
	"todolis-backend/pkg/utils"
)

var (
	app     *server.App
	appErr  error
	appOnce sync.Once
)

// Handler 是Vercel函数的入口点
// The app is built once per cold start and reused across warm invocations.
func Handler(w http.ResponseWriter, r *http.Request) {
	appOnce.Do(func() {
		cfg, err := config.GetCached()
		if err != nil {
			appErr = err
			return
		}
		app, appErr = server.NewApp(context.Background(), cfg)
	})
	if appErr != nil {
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+appErr.Error())
		return
	}

	app.Handler.ServeHTTP(w, r)
}
