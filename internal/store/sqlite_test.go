package store

import (
	"context"
	"testing"
	"time"

	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/session"
)

func TestSession_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	if _, ok, err := s.LoadSession(ctx); err != nil || ok {
		t.Fatalf("expected no session, got ok=%v err=%v", ok, err)
	}

	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	want := session.Credential{Token: "tok", Subject: "u1", Email: "u1@x.com", IssuedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), ExpiresAt: exp}
	if err := s.SaveSession(ctx, want); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	got, ok, err := s.LoadSession(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadSession: ok=%v err=%v", ok, err)
	}
	if got.Token != "tok" || got.Subject != "u1" || got.Email != "u1@x.com" || !got.ExpiresAt.Equal(exp) || !got.IssuedAt.Equal(want.IssuedAt) {
		t.Fatalf("unexpected credential: %+v", got)
	}

	if err := s.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, ok, _ := s.LoadSession(ctx); ok {
		t.Fatalf("expected session cleared")
	}
}

func TestSession_UnknownExpiryRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	if err := s.SaveSession(ctx, session.Credential{Token: "opaque", IssuedAt: time.Now()}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	got, _, err := s.LoadSession(ctx)
	if err != nil || !got.ExpiresAt.IsZero() {
		t.Fatalf("expected zero expiry, got %+v %v", got, err)
	}
}

func TestSession_ThroughSessionObject(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}

	sess := session.New(s)
	if _, err := sess.Begin(ctx, "opaque"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	restored := session.New(s)
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !restored.Active() {
		t.Fatalf("expected restored session")
	}
	if err := restored.End(ctx); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, ok, _ := s.LoadSession(ctx); ok {
		t.Fatalf("expected session cleared on End")
	}
}

func TestActivity_RecordList(t *testing.T) {
	ctx := context.Background()
	s := Store{Dir: t.TempDir()}
	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, a := range []model.Activity{
		{TS: base, Action: "view", TaskID: "1", Outcome: model.OutcomeOK},
		{TS: base.Add(time.Minute), Action: "complete", TaskID: "1", Outcome: model.OutcomeFailed, Error: "conflict (409)"},
		{TS: base.Add(2 * time.Minute), Action: "reply", TaskID: "2", Outcome: model.OutcomeRejected, Error: "message required"},
	} {
		if err := s.Record(ctx, a); err != nil {
			t.Fatalf("Record #%d: %v", i, err)
		}
	}

	got, err := s.ListActivity(ctx, 2)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(got) != 2 || got[0].Action != "reply" || got[1].Action != "complete" {
		t.Fatalf("unexpected activity: %+v", got)
	}
	if got[0].ID == "" || !got[0].TS.Equal(base.Add(2*time.Minute)) || got[1].Error != "conflict (409)" {
		t.Fatalf("unexpected fields: %+v", got)
	}

	all, err := s.ListActivity(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("expected all 3 entries, got %d %v", len(all), err)
	}
}
