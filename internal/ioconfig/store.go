package ioconfig

import (
	"fmt"
	"os"
	"sync"

	"github.com/findata/findwh/pkg/config"
)

// EnvVariable names the environment variable that selects the current
// environment layer ('dev', 'prod', ...). Unset means "dev".
const EnvVariable = "FINDWH_ENV"

// Store holds process-wide settings. It is initialized exactly once per
// process; concurrent initializers are serialized and all but the first
// become no-ops. After initialization the settings are read-only, so
// reads need no further synchronization.
//
// The store is passed explicitly to the components that need it rather
// than accessed as ambient global state, which keeps tests independent.
type Store struct {
	mu          sync.Mutex
	initialized bool
	cfg         *config.Config
}

// NewStore creates an uninitialized settings store.
func NewStore() *Store {
	return &Store{}
}

// Init loads settings from the given layered config files. The {ENV}
// token in file names resolves to the FINDWH_ENV environment variable
// (default "dev"). Calling Init on an initialized store is a no-op, so a
// second caller racing the first simply observes the first one's result.
func (s *Store) Init(paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	env := os.Getenv(EnvVariable)
	if env == "" {
		env = "dev"
	}

	cfg, err := load(env, paths)
	if err != nil {
		return err
	}

	s.cfg = cfg
	s.initialized = true
	return nil
}

// InitFromConfig populates the store from an already-built config. Used
// by tests and by callers that assemble configuration programmatically.
func (s *Store) InitFromConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return
	}
	s.cfg = cfg
	s.initialized = true
}

// Config returns the loaded settings, or an error if the store was never
// initialized.
func (s *Store) Config() (*config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, fmt.Errorf("settings store is not initialized")
	}
	return s.cfg, nil
}

// Database resolves a named database configuration.
func (s *Store) Database(name string) (config.DatabaseConfig, error) {
	cfg, err := s.Config()
	if err != nil {
		return config.DatabaseConfig{}, err
	}

	dbCfg, ok := cfg.Databases[name]
	if !ok {
		return config.DatabaseConfig{}, fmt.Errorf(
			"no database configuration named %q", name,
		)
	}
	return dbCfg, nil
}
