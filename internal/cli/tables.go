package cli

import (
	"strconv"
	"time"

	"mailtasks-cli/internal/dashboard"
	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/statusutil"
)

// Table views for --format table. They marshal exactly like the values
// they wrap.

type taskRows []model.Task

func (taskRows) TableHeaders() []string {
	return []string{"ID", "URGENCY", "STATUS", "CATEGORY", "FROM", "RECEIVED", "SUMMARY"}
}

func (r taskRows) TableRows() [][]string {
	out := make([][]string, 0, len(r))
	for _, t := range r {
		out = append(out, taskRow(t))
	}
	return out
}

func taskRow(t model.Task) []string {
	return []string{
		t.ID.String(),
		string(t.Urgency),
		statusutil.Label(t.Status),
		t.Category,
		t.FromEmail,
		receivedCell(t.ReceivedAt),
		clip(t.DisplaySummary(), 60),
	}
}

type bucketsView dashboard.Buckets

func (bucketsView) TableHeaders() []string {
	return []string{"BUCKET", "ID", "STATUS", "FROM", "SUMMARY"}
}

func (b bucketsView) TableRows() [][]string {
	var out [][]string
	for _, u := range []model.Urgency{model.UrgencyUrgent, model.UrgencyMedium, model.UrgencyRoutine} {
		tasks := dashboard.Buckets(b).Get(u)
		if len(tasks) == 0 {
			out = append(out, []string{string(u), "-", "", "", ""})
			continue
		}
		for _, t := range tasks {
			out = append(out, []string{string(u), t.ID.String(), statusutil.Label(t.Status), t.FromEmail, clip(t.DisplaySummary(), 60)})
		}
	}
	return out
}

type activityRows []model.Activity

func (activityRows) TableHeaders() []string {
	return []string{"TIME", "ACTION", "TASK", "OUTCOME", "ERROR"}
}

func (r activityRows) TableRows() [][]string {
	out := make([][]string, 0, len(r))
	for _, a := range r {
		out = append(out, []string{a.TS.Local().Format(time.DateTime), a.Action, a.TaskID.String(), a.Outcome, a.Error})
	}
	return out
}

type categoryRows []dashboard.Category

func (categoryRows) TableHeaders() []string { return []string{"CATEGORY", "COUNT", "WEIGHT"} }

func (r categoryRows) TableRows() [][]string {
	out := make([][]string, 0, len(r))
	for _, c := range r {
		out = append(out, []string{c.Name, strconv.Itoa(c.Count), strconv.Itoa(c.Weight) + "%"})
	}
	return out
}

func receivedCell(ts model.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
