package config

import "github.com/newscheck/backend/internal/textclass"

// TrainConfig converts the model section into trainer settings
func (m ModelConfig) TrainConfig() textclass.TrainConfig {
	cfg := textclass.DefaultTrainConfig()
	cfg.Vectorizer.MaxFeatures = m.MaxFeatures
	cfg.Vectorizer.MaxDF = m.MaxDF
	cfg.Classifier.C = m.C
	cfg.Classifier.MaxIter = m.MaxIter
	cfg.TestSize = m.TestSize
	cfg.Seed = m.Seed
	return cfg
}
