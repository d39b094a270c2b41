package clientcfg

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog"

	"llmaniac/internal/domain"
)

// ErrNotFound covers every way a client config can fail to resolve: bad id,
// missing directory, missing or malformed events file, or zero usable events.
var ErrNotFound = errors.New("client config not found")

const (
	eventsFile   = "events.json"
	settingsFile = "settings.json"
)

// Only plain identifiers may reach the filesystem.
var safeContainerID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SanitizeContainerID returns the id unchanged when it is safe to use as a
// directory name, or "" when it must be rejected.
func SanitizeContainerID(id string) string {
	if safeContainerID.MatchString(id) {
		return id
	}
	return ""
}

// Store resolves per-client configuration from a directory tree, one
// subdirectory per container id, caching parsed results for the process
// lifetime. Cache entries are never invalidated; a restart picks up file
// changes.
type Store struct {
	dir   string
	cache Cache
	log   zerolog.Logger
}

func NewStore(dir string, cache Cache, log zerolog.Logger) *Store {
	return &Store{dir: dir, cache: cache, log: log}
}

// Resolve returns the configuration for containerID, loading and caching it
// on first access. Every failure mode maps to ErrNotFound.
func (s *Store) Resolve(containerID string) (*domain.ClientConfig, error) {
	id := SanitizeContainerID(containerID)
	if id == "" {
		s.log.Warn().Str("container_id", containerID).Msg("rejected container id")
		return nil, ErrNotFound
	}

	if cfg, ok := s.cache.Get(id); ok {
		return cfg, nil
	}

	cfg, err := s.load(id)
	if err != nil {
		return nil, err
	}

	s.cache.Set(id, cfg)
	s.log.Info().Str("container_id", id).Int("events", len(cfg.Events)).Msg("client config loaded")
	return cfg, nil
}

func (s *Store) load(id string) (*domain.ClientConfig, error) {
	clientDir := filepath.Join(s.dir, id)
	if info, err := os.Stat(clientDir); err != nil || !info.IsDir() {
		s.log.Error().Str("container_id", id).Msg("config directory not found")
		return nil, ErrNotFound
	}

	events, err := s.loadEvents(id, filepath.Join(clientDir, eventsFile))
	if err != nil {
		return nil, err
	}

	settings := s.loadSettings(id, filepath.Join(clientDir, settingsFile))

	return &domain.ClientConfig{Events: events, Settings: settings}, nil
}

// loadEvents requires a JSON list with at least one record passing the event
// schema. Individually invalid records are skipped with a warning.
func (s *Store) loadEvents(id, path string) ([]domain.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Error().Str("container_id", id).Err(err).Msg("events file not readable")
		return nil, ErrNotFound
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.Error().Str("container_id", id).Err(err).Msg("events file is not a JSON list")
		return nil, ErrNotFound
	}

	var events []domain.Event
	for i, item := range raw {
		var ev domain.Event
		if err := json.Unmarshal(item, &ev); err != nil {
			s.log.Warn().Str("container_id", id).Int("index", i).Err(err).Msg("skipping unparseable event record")
			continue
		}
		if err := ev.Validate(); err != nil {
			s.log.Warn().Str("container_id", id).Int("index", i).Err(err).Msg("skipping invalid event record")
			continue
		}
		events = append(events, ev)
	}

	if len(events) == 0 {
		s.log.Error().Str("container_id", id).Msg("no valid events in events file")
		return nil, ErrNotFound
	}
	return events, nil
}

// loadSettings falls back to defaults when the file is absent or invalid.
func (s *Store) loadSettings(id, path string) domain.Settings {
	var settings domain.Settings

	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn().Str("container_id", id).Msg("settings file not found, using defaults")
		return settings
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		s.log.Error().Str("container_id", id).Err(err).Msg("settings file unparseable, using defaults")
		return domain.Settings{}
	}
	return settings
}
