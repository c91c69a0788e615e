package dashboard

import (
	"testing"
	"time"

	"mailtasks-cli/internal/model"
)

func mk(id string, u model.Urgency, st model.Status, cat string, at time.Time) model.Task {
	return model.Task{ID: model.TaskID(id), Urgency: u, Status: st, Category: cat, ReceivedAt: model.Timestamp{Time: at}}
}

func TestCompletionRate(t *testing.T) {
	cases := []struct{ completed, total, want int }{
		{0, 0, 0},
		{5, 0, 0},
		{0, 10, 0},
		{1, 3, 33},
		{2, 3, 67},
		{10, 10, 100},
		{12, 10, 100},
	}
	for _, tc := range cases {
		got := CompletionRate(tc.completed, tc.total)
		if got != tc.want {
			t.Fatalf("CompletionRate(%d,%d) = %d, want %d", tc.completed, tc.total, got, tc.want)
		}
		if got < 0 || got > 100 {
			t.Fatalf("rate out of bounds: %d", got)
		}
	}
}

func TestTotals_UrgentIsIndependent(t *testing.T) {
	tot := TotalsOf(model.TaskStats{UrgentCount: 7, PendingCount: 3, CompletedCount: 1})
	if tot.Total != 4 || tot.Urgent != 7 || tot.CompletionRate != 25 {
		t.Fatalf("unexpected totals: %+v", tot)
	}
}

func TestResolveStats_PrefersServer(t *testing.T) {
	tasks := []model.Task{
		mk("1", model.UrgencyUrgent, model.StatusPending, "", time.Time{}),
		mk("2", model.UrgencyMedium, model.StatusCompleted, "", time.Time{}),
		mk("3", model.UrgencyRoutine, model.StatusViewed, "", time.Time{}),
		mk("4", model.UrgencyUrgent, model.StatusArchived, "", time.Time{}),
	}
	st, server := ResolveStats(model.TaskList{Tasks: tasks})
	if server {
		t.Fatalf("expected local fallback")
	}
	if st.PendingCount != 2 || st.CompletedCount != 2 || st.UrgentCount != 2 {
		t.Fatalf("unexpected local stats: %+v", st)
	}
	if st.PendingCount+st.CompletedCount != len(tasks) {
		t.Fatalf("pending+completed = %d, want %d", st.PendingCount+st.CompletedCount, len(tasks))
	}

	srv := model.TaskStats{UrgentCount: 9, PendingCount: 8, CompletedCount: 7}
	st, server = ResolveStats(model.TaskList{Tasks: tasks, Stats: &srv})
	if !server || st != srv {
		t.Fatalf("expected server stats, got %+v", st)
	}
}

func TestLocalStats_ArchivedCountsAsCompleted(t *testing.T) {
	tasks := []model.Task{
		mk("1", model.UrgencyUrgent, model.StatusPending, "", time.Time{}),
		mk("2", model.UrgencyMedium, model.StatusCompleted, "", time.Time{}),
		mk("3", model.UrgencyRoutine, model.StatusArchived, "", time.Time{}),
	}
	st := LocalStats(tasks)
	if st.PendingCount != 1 || st.CompletedCount != 2 {
		t.Fatalf("unexpected local stats: %+v", st)
	}
	tot := TotalsOf(st)
	if tot.Total != len(tasks) || tot.CompletionRate != 67 {
		t.Fatalf("unexpected totals: %+v", tot)
	}
}

func TestCategories_WeightsForThreeAndOneOfFour(t *testing.T) {
	tasks := []model.Task{
		mk("1", model.UrgencyUrgent, model.StatusPending, "RH", time.Time{}),
		mk("2", model.UrgencyUrgent, model.StatusPending, "", time.Time{}),
		mk("3", model.UrgencyUrgent, model.StatusPending, "RH", time.Time{}),
		mk("4", model.UrgencyUrgent, model.StatusPending, "RH", time.Time{}),
	}
	cats := Categories(tasks)
	if len(cats) != 2 {
		t.Fatalf("expected 2 groups, got %+v", cats)
	}
	if cats[0].Name != "RH" || cats[0].Count != 3 || cats[1].Name != DefaultCategory || cats[1].Count != 1 {
		t.Fatalf("unexpected groups: %+v", cats)
	}
	for _, c := range cats {
		raw := c.Count * 100 / len(tasks)
		if c.Weight < raw || c.Weight > 100 {
			t.Fatalf("weight %d for %s outside [%d,100]", c.Weight, c.Name, raw)
		}
	}
	if cats[0].Weight != 95 || cats[1].Weight != 45 {
		t.Fatalf("unexpected weights: %+v", cats)
	}
}

func TestWeight_Saturates(t *testing.T) {
	if got := Weight(9, 10); got != 100 {
		t.Fatalf("expected cap at 100, got %d", got)
	}
	if got := Weight(0, 10); got != 0 {
		t.Fatalf("expected 0 for empty group, got %d", got)
	}
	if got := Categories(nil); len(got) != 0 {
		t.Fatalf("expected no groups")
	}
}

func TestPartition_ExhaustiveAndDisjointOverNonTerminal(t *testing.T) {
	urgencies := []model.Urgency{model.UrgencyUrgent, model.UrgencyMedium, model.UrgencyRoutine}
	statuses := []model.Status{model.StatusPending, model.StatusViewed, model.StatusCompleted, model.StatusArchived}
	var tasks []model.Task
	n := 0
	for _, u := range urgencies {
		for _, st := range statuses {
			n++
			tasks = append(tasks, mk(string(rune('a'+n)), u, st, "", time.Unix(int64(n), 0)))
		}
	}

	b := Partition(tasks)
	seen := map[model.TaskID]int{}
	for _, u := range urgencies {
		for _, tk := range b.Get(u) {
			if tk.Urgency != u {
				t.Fatalf("task %s in wrong bucket %s", tk.ID, u)
			}
			seen[tk.ID]++
		}
	}
	for _, tk := range tasks {
		terminal := tk.Status == model.StatusCompleted || tk.Status == model.StatusArchived
		switch {
		case terminal && seen[tk.ID] != 0:
			t.Fatalf("terminal task %s bucketed", tk.ID)
		case !terminal && seen[tk.ID] != 1:
			t.Fatalf("task %s appears %d times", tk.ID, seen[tk.ID])
		}
	}
	if b.Len() != 6 {
		t.Fatalf("expected 6 bucketed tasks, got %d", b.Len())
	}
}

func TestPartition_NewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := Partition([]model.Task{
		mk("old", model.UrgencyMedium, model.StatusPending, "", base),
		mk("new", model.UrgencyMedium, model.StatusPending, "", base.Add(time.Hour)),
	})
	if b.Medium[0].ID != "new" {
		t.Fatalf("expected newest first, got %s", b.Medium[0].ID)
	}
}

func TestBuild(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var tasks []model.Task
	for i := 0; i < 7; i++ {
		tasks = append(tasks, mk(string(rune('a'+i)), model.UrgencyRoutine, model.StatusPending, "RH", base.Add(time.Duration(i)*time.Minute)))
	}
	d := Build(model.TaskList{Tasks: tasks})
	if len(d.Recent) != 5 || d.Recent[0].ID != "g" {
		t.Fatalf("unexpected recent: %+v", d.Recent)
	}
	if d.Totals.Total != 7 || d.Totals.CompletionRate != 0 || d.ServerStats {
		t.Fatalf("unexpected totals: %+v", d.Totals)
	}
	if len(d.Buckets.Routine) != 7 {
		t.Fatalf("unexpected buckets: %+v", d.Buckets)
	}
}
