package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const SchemaVersion = 1

// SourceState tracks the newest item seen for one source.
type SourceState struct {
	LastSeenDate time.Time `json:"last_seen_date"`
	LastSeenID   string    `json:"last_seen_id"`
}

// RunRecord describes the most recent completed run.
type RunRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	Success        bool      `json:"success"`
	ItemsProcessed int       `json:"items_processed"`
	DigestFile     string    `json:"digest_file,omitempty"`
}

type runState struct {
	SchemaVersion int                    `json:"schema_version"`
	LastRun       *RunRecord             `json:"last_run"`
	Sources       map[string]SourceState `json:"sources"`
}

// Store holds the run state for a digest. It is loaded once at process
// start, mutated in memory by the pipeline's sequential loop, and persisted
// exactly once by Save at the end of a successful run.
type Store struct {
	stateDir  string
	stateFile string
	state     runState
}

func NewStore(stateDir string) (*Store, error) {
	s := &Store{
		stateDir:  stateDir,
		stateFile: filepath.Join(stateDir, "state.json"),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			s.state = runState{
				SchemaVersion: SchemaVersion,
				Sources:       make(map[string]SourceState),
			}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &s.state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	if s.state.SchemaVersion < SchemaVersion {
		s.migrate()
	}

	if s.state.Sources == nil {
		s.state.Sources = make(map[string]SourceState)
	}

	return nil
}

// migrate upgrades older on-disk schemas in place. No structural changes
// exist yet, so this only bumps the version.
func (s *Store) migrate() {
	slog.Debug("Migrating state schema", "from", s.state.SchemaVersion, "to", SchemaVersion)
	s.state.SchemaVersion = SchemaVersion
}

// GetLastSeenDate returns the last seen date for a source, if any.
func (s *Store) GetLastSeenDate(sourceName string) (time.Time, bool) {
	sourceState, ok := s.state.Sources[sourceName]
	if !ok || sourceState.LastSeenDate.IsZero() {
		return time.Time{}, false
	}
	return sourceState.LastSeenDate, true
}

// UpdateSource advances a source's state. Updates never move the last seen
// date backwards, so replay runs cannot regress the incremental cutoff.
func (s *Store) UpdateSource(sourceName string, lastSeenDate time.Time, lastSeenID string) {
	if existing, ok := s.state.Sources[sourceName]; ok && lastSeenDate.Before(existing.LastSeenDate) {
		slog.Debug("Ignoring backwards state update", "source", sourceName,
			"existing", existing.LastSeenDate, "proposed", lastSeenDate)
		return
	}

	s.state.Sources[sourceName] = SourceState{
		LastSeenDate: lastSeenDate.UTC(),
		LastSeenID:   lastSeenID,
	}
}

// RecordRun stores the outcome of the current run.
func (s *Store) RecordRun(success bool, itemsProcessed int, digestFile string) {
	s.state.LastRun = &RunRecord{
		Timestamp:      time.Now().UTC(),
		Success:        success,
		ItemsProcessed: itemsProcessed,
		DigestFile:     digestFile,
	}
}

// Save persists the state atomically: the new blob is written to a temp
// file and renamed over the old one, so a crash mid-write never leaves a
// partially committed state visible.
func (s *Store) Save() error {
	if err := os.MkdirAll(s.stateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpFile := s.stateFile + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmpFile, s.stateFile); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
