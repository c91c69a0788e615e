package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

const tuiStateFileName = "tui_state.json"

// TUIState stores small, user-facing UI state for restoring the last screen on relaunch.
//
// It is "best effort": callers should tolerate missing/invalid data.
type TUIState struct {
	Version int `json:"version"`

	// View is one of: tasks|dashboard|detail
	View string `json:"view,omitempty"`

	// Bucket is the selected urgency tab in the tasks view.
	Bucket string `json:"bucket,omitempty"`

	// OpenTaskID is used when View == "detail".
	OpenTaskID string `json:"openTaskId,omitempty"`

	// RecentTaskIDs stores most-recently-opened task ids, newest first.
	RecentTaskIDs []string `json:"recentTaskIds,omitempty"`
}

const maxRecentTaskIDs = 20

// TouchRecent moves id to the front of the recent list.
func (st *TUIState) TouchRecent(id string) {
	if id == "" {
		return
	}
	out := []string{id}
	for _, x := range st.RecentTaskIDs {
		if x != id {
			out = append(out, x)
		}
	}
	if len(out) > maxRecentTaskIDs {
		out = out[:maxRecentTaskIDs]
	}
	st.RecentTaskIDs = out
}

func (s Store) tuiStatePath() string {
	return filepath.Join(s.Dir, tuiStateFileName)
}

func (s Store) LoadTUIState() (*TUIState, error) {
	if !s.valid() {
		return &TUIState{Version: 1}, nil
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.tuiStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &TUIState{Version: 1}, nil
		}
		return nil, err
	}
	var st TUIState
	if err := json.Unmarshal(b, &st); err != nil {
		// Best-effort; if corrupted, treat as missing.
		return &TUIState{Version: 1}, nil
	}
	if st.Version == 0 {
		st.Version = 1
	}
	return &st, nil
}

func (s Store) SaveTUIState(st *TUIState) error {
	if st == nil || !s.valid() {
		return nil
	}
	if err := s.Ensure(); err != nil {
		return err
	}
	if st.Version == 0 {
		st.Version = 1
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(s.Dir, "tui_state.json.*.tmp", s.tuiStatePath(), b, 0o644)
}
