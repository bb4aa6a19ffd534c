// internal/scoring/weights.go
package scoring

import (
	"os"
	"path/filepath"
	"sync"

	commonerrors "demand-radar/internal/common/errors"
	"demand-radar/internal/common/logger"
	"demand-radar/internal/models"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// WeightStore holds the stored default weight profile backed by a yaml
// file. The engine itself never reads it; API handlers fetch the current
// profile from here and pass it into scoring calls explicitly. A missing
// file is seeded with the shipped defaults, and a file that sets no
// weights falls back to them too.
type WeightStore struct {
	mu      sync.RWMutex
	path    string
	current models.WeightConfig
	logger  logger.Logger
}

type weightsFile struct {
	Weights models.WeightConfig `yaml:"weights" mapstructure:"weights"`
}

func NewWeightStore(path string, watch bool, log logger.Logger) (*WeightStore, error) {
	s := &WeightStore{
		path:    path,
		current: models.DefaultWeights(),
		logger:  log.WithFields(map[string]interface{}{"component": "weights"}),
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, commonerrors.NewInvalidConfigurationError("weights file unreadable: " + err.Error())
		}
		if err := s.write(models.DefaultWeights()); err != nil {
			return nil, err
		}
		s.logger.Info("seeded weights file with defaults", map[string]interface{}{"path": path})
	} else {
		loaded, err := parseWeights(v)
		if err != nil {
			return nil, err
		}
		if loaded.Sum() == 0 {
			s.logger.Warn("weights file sets no weights, using defaults", map[string]interface{}{"path": path})
		} else {
			s.current = loaded
		}
	}

	if watch {
		v.OnConfigChange(func(event fsnotify.Event) {
			loaded, err := parseWeights(v)
			if err != nil {
				s.logger.Warn("ignoring weights reload", map[string]interface{}{
					"path":  event.Name,
					"error": err.Error(),
				})
				return
			}
			if loaded.Sum() == 0 {
				s.logger.Warn("ignoring weights reload with no weights set", map[string]interface{}{"path": event.Name})
				return
			}
			s.mu.Lock()
			s.current = loaded
			s.mu.Unlock()
			s.logger.Info("weights reloaded", map[string]interface{}{"path": event.Name})
		})
		v.WatchConfig()
	}

	return s, nil
}

func parseWeights(v *viper.Viper) (models.WeightConfig, error) {
	var f weightsFile
	if err := v.Unmarshal(&f); err != nil {
		return models.WeightConfig{}, commonerrors.NewInvalidConfigurationError("weights file malformed: " + err.Error())
	}
	if err := f.Weights.Validate(); err != nil {
		return models.WeightConfig{}, commonerrors.NewInvalidConfigurationError(err.Error())
	}
	return f.Weights, nil
}

// Get returns the current stored default profile.
func (s *WeightStore) Get() models.WeightConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates, persists, and swaps in a new default profile.
func (s *WeightStore) Update(w models.WeightConfig) error {
	if err := w.Validate(); err != nil {
		return commonerrors.NewInvalidConfigurationError(err.Error())
	}
	if err := s.write(w); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = w
	s.mu.Unlock()
	return nil
}

func (s *WeightStore) write(w models.WeightConfig) error {
	data, err := yaml.Marshal(weightsFile{Weights: w})
	if err != nil {
		return commonerrors.NewInternalError(err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return commonerrors.NewInternalError(err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return commonerrors.NewInternalError(err)
	}
	return nil
}
