package config

import "github.com/sirupsen/logrus"

// ConfigureLogger applies level and output format. Validate has already
// checked the level, so a parse failure leaves the logger at info.
func ConfigureLogger(logger *logrus.Logger, cfg LogConfig) {
	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}
