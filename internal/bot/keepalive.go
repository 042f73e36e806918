package bot

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// StartKeepAlive serves the liveness endpoint that keeps the process
// supervised. It exchanges no data with the core.
func StartKeepAlive(ctx context.Context, port int, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "🤖 CVT Bot is running!")
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("keep-alive server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("keep-alive server error", zap.Error(err))
		}
	}()
}
