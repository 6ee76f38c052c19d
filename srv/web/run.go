package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/opd-ai/repairdoc/srv/config"
	"github.com/opd-ai/repairdoc/srv/tlsutil"
)

// Run serves s on the configured address until the listener fails.
func Run(cfg *config.Config, s *Server, logger *zap.Logger) error {
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if cfg.Server.TLSEnabled {
		certFile, keyFile := cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile
		if certFile == "" {
			certFile, keyFile = "certs/server.crt", "certs/server.key"
		}
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.Bool("tls", true))
		return tlsutil.ListenAndServeTLS(server, certFile, keyFile)
	}

	logger.Info("listening", zap.String("addr", cfg.Server.Addr))
	return server.ListenAndServe()
}
