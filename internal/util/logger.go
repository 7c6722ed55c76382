package util

import "go.uber.org/zap"

// NewLogger returns a JSON logger in production and a console logger otherwise.
// Binaries can pass their name so consumers and the api are told apart in logs.
func NewLogger(env string, name ...string) *zap.SugaredLogger {
	var logger *zap.SugaredLogger

	if env == "production" {
		logger = zap.Must(zap.NewProduction()).Sugar()
	} else {
		logger = zap.Must(zap.NewDevelopment()).Sugar()
	}

	if len(name) > 0 && name[0] != "" {
		logger = logger.Named(name[0])
	}

	defer logger.Sync()

	return logger
}
