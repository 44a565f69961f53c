package conflict

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sdejongh/modclash/internal/platform"
	"github.com/sdejongh/modclash/pkg/exclude"
)

const stateFileVersion = 1

// State is the exclusion list remembered for one mod root between runs
type State struct {
	// Version for state file format compatibility
	Version int `json:"version"`

	// Root identifies the mod root
	Root string `json:"root"`

	// Excluded are the suppressed relative paths
	Excluded []string `json:"excluded"`

	// Updated is when the state was last saved
	Updated time.Time `json:"updated"`
}

// NewState creates an empty state for root
func NewState(root string) *State {
	return &State{
		Version:  stateFileVersion,
		Root:     platform.NormalizePath(root),
		Excluded: []string{},
	}
}

// LoadState loads the saved exclusions of root.
// Returns a new empty state if nothing was saved.
func LoadState(root string) (*State, error) {
	path, err := StateFilePath(root)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(root), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if state.Version > stateFileVersion {
		return nil, fmt.Errorf("state file version %d is newer than supported version %d", state.Version, stateFileVersion)
	}
	if state.Excluded == nil {
		state.Excluded = []string{}
	}

	return &state, nil
}

// Save persists the state atomically
func (s *State) Save() error {
	path, err := StateFilePath(s.Root)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	s.Updated = time.Now()
	sort.Strings(s.Excluded)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize state file: %w", err)
	}

	return nil
}

// Apply adds the saved exclusions to set
func (s *State) Apply(set *exclude.Set) {
	for _, p := range s.Excluded {
		set.Exclude(p)
	}
}

// Capture replaces the saved exclusions with the contents of set
func (s *State) Capture(set *exclude.Set) {
	s.Excluded = set.List()
}

// StateFilePath returns where the state of root is stored, under the
// user's config directory
func StateFilePath(root string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("failed to locate config directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, "modclash", "state", hashRoot(root)+".json"), nil
}

// hashRoot creates a deterministic file name for root (FNV-1a)
func hashRoot(root string) string {
	root = platform.NormalizePath(root)

	h := uint64(14695981039346656037)
	for _, c := range root {
		h ^= uint64(c)
		h *= 1099511628211
	}

	return fmt.Sprintf("%016x", h)
}

// ClearState removes the saved state of root
func ClearState(root string) error {
	path, err := StateFilePath(root)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
