package store

import (
	"os"
	"reflect"
	"testing"
)

func TestTUIState_SaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := Store{Dir: dir}

	// Missing file => default state.
	st0, err := s.LoadTUIState()
	if err != nil {
		t.Fatalf("LoadTUIState: %v", err)
	}
	if st0 == nil || st0.Version != 1 {
		t.Fatalf("expected default Version=1; got %#v", st0)
	}

	want := &TUIState{
		Version:       1,
		View:          "detail",
		Bucket:        "MEDIANO",
		OpenTaskID:    "42",
		RecentTaskIDs: []string{"42", "7"},
	}
	if err := s.SaveTUIState(want); err != nil {
		t.Fatalf("SaveTUIState: %v", err)
	}

	got, err := s.LoadTUIState()
	if err != nil {
		t.Fatalf("LoadTUIState (after save): %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("roundtrip mismatch:\nwant: %#v\ngot:  %#v", want, got)
	}
}

func TestTUIState_CorruptIsDefault(t *testing.T) {
	t.Parallel()

	s := Store{Dir: t.TempDir()}
	if err := os.WriteFile(s.tuiStatePath(), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, err := s.LoadTUIState()
	if err != nil || st.Version != 1 || st.View != "" {
		t.Fatalf("expected default state, got %#v %v", st, err)
	}
}

func TestTUIState_TouchRecent(t *testing.T) {
	t.Parallel()

	st := &TUIState{RecentTaskIDs: []string{"1", "2", "3"}}
	st.TouchRecent("3")
	if !reflect.DeepEqual(st.RecentTaskIDs, []string{"3", "1", "2"}) {
		t.Fatalf("unexpected recent ids: %v", st.RecentTaskIDs)
	}
	for i := 0; i < 30; i++ {
		st.TouchRecent(string(rune('a' + i)))
	}
	if len(st.RecentTaskIDs) != maxRecentTaskIDs {
		t.Fatalf("expected cap %d, got %d", maxRecentTaskIDs, len(st.RecentTaskIDs))
	}
}
