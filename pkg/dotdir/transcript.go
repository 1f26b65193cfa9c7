package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/papercomputeco/denguesense/pkg/llm"
)

const (
	transcriptFile = "transcript.json"
)

// Transcript is a saved assistant conversation, excluding the greeting.
type Transcript struct {
	SavedAt  time.Time     `json:"saved_at"`
	Messages []llm.Message `json:"messages"`
}

// LoadTranscript loads the saved transcript from a target .denguesense/transcript.json.
// Returns nil, nil if no transcript exists.
func (m *Manager) LoadTranscript(overrideDir string) (*Transcript, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, transcriptFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	t := &Transcript{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}

	return t, nil
}

// SaveTranscript persists t to a target .denguesense/transcript.json.
func (m *Manager) SaveTranscript(t *Transcript, overrideDir string) error {
	if t == nil {
		return errors.New("cannot save nil transcript")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling transcript: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, transcriptFile), data, 0o600); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	return nil
}

// ClearTranscript removes the saved transcript. Returns nil if the file
// doesn't exist.
func (m *Manager) ClearTranscript(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, transcriptFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing transcript: %w", err)
	}

	return nil
}
