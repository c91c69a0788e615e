// Package dashboard derives the statistics, category breakdown and urgency
// buckets shown for a task collection. Everything here is pure.
package dashboard

import (
	"math"
	"sort"
	"strings"

	"mailtasks-cli/internal/model"
	"mailtasks-cli/internal/statusutil"
)

// DefaultCategory is the group for tasks without a suggested category.
const DefaultCategory = "Outros"

const (
	weightOffset = 20
	weightCap    = 100
	recentCount  = 5
)

type Totals struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	Completed      int `json:"completed"`
	Urgent         int `json:"urgent"`
	CompletionRate int `json:"completionRate"`
}

// TotalsOf derives totals from counts. Urgent is reported independently
// and is not part of Total.
func TotalsOf(stats model.TaskStats) Totals {
	total := stats.PendingCount + stats.CompletedCount
	return Totals{
		Total:          total,
		Pending:        stats.PendingCount,
		Completed:      stats.CompletedCount,
		Urgent:         stats.UrgentCount,
		CompletionRate: CompletionRate(stats.CompletedCount, total),
	}
}

// CompletionRate is round(completed/total*100) clamped to [0,100], and 0
// when total is 0.
func CompletionRate(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	r := int(math.Round(float64(completed) / float64(total) * 100))
	if r > 100 {
		return 100
	}
	return r
}

// ResolveStats prefers the server's counts and falls back to counting the
// tasks locally.
func ResolveStats(list model.TaskList) (model.TaskStats, bool) {
	if list.Stats != nil {
		return *list.Stats, true
	}
	return LocalStats(list.Tasks), false
}

// LocalStats counts pending, completed and urgent tasks. Every terminal
// status (ARCHIVED included) counts as completed, so pending + completed
// always equals len(tasks).
func LocalStats(tasks []model.Task) model.TaskStats {
	var st model.TaskStats
	for _, t := range tasks {
		if statusutil.IsTerminal(t.Status) {
			st.CompletedCount++
		} else {
			st.PendingCount++
		}
		if t.Urgency == model.UrgencyUrgent {
			st.UrgentCount++
		}
	}
	return st
}

type Category struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Weight int    `json:"weight"`
}

// Categories groups tasks by suggested category in order of first
// appearance. Weight is the group's share of all tasks in percent plus a
// fixed offset, capped at 100, so small groups stay visible.
func Categories(tasks []model.Task) []Category {
	if len(tasks) == 0 {
		return []Category{}
	}
	idx := map[string]int{}
	var out []Category
	for _, t := range tasks {
		name := strings.TrimSpace(t.Category)
		if name == "" {
			name = DefaultCategory
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, Category{Name: name})
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Weight = Weight(out[i].Count, len(tasks))
	}
	return out
}

func Weight(count, total int) int {
	if total <= 0 || count <= 0 {
		return 0
	}
	w := int(math.Round(float64(count)/float64(total)*100)) + weightOffset
	if w > weightCap {
		return weightCap
	}
	return w
}

type Buckets struct {
	Urgent  []model.Task `json:"urgente"`
	Medium  []model.Task `json:"mediano"`
	Routine []model.Task `json:"rotineira"`
}

// Partition buckets non-terminal tasks by urgency. Tasks with an unknown
// urgency are left out. Each bucket is ordered newest first.
func Partition(tasks []model.Task) Buckets {
	b := Buckets{Urgent: []model.Task{}, Medium: []model.Task{}, Routine: []model.Task{}}
	for _, t := range tasks {
		if statusutil.IsTerminal(t.Status) {
			continue
		}
		switch t.Urgency {
		case model.UrgencyUrgent:
			b.Urgent = append(b.Urgent, t)
		case model.UrgencyMedium:
			b.Medium = append(b.Medium, t)
		case model.UrgencyRoutine:
			b.Routine = append(b.Routine, t)
		}
	}
	for _, s := range [][]model.Task{b.Urgent, b.Medium, b.Routine} {
		sortNewestFirst(s)
	}
	return b
}

// Get returns the bucket for u.
func (b Buckets) Get(u model.Urgency) []model.Task {
	switch u {
	case model.UrgencyUrgent:
		return b.Urgent
	case model.UrgencyMedium:
		return b.Medium
	case model.UrgencyRoutine:
		return b.Routine
	}
	return nil
}

func (b Buckets) Len() int { return len(b.Urgent) + len(b.Medium) + len(b.Routine) }

// Recent returns up to n tasks, newest first.
func Recent(tasks []model.Task, n int) []model.Task {
	out := append([]model.Task(nil), tasks...)
	sortNewestFirst(out)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []model.Task{}
	}
	return out
}

func sortNewestFirst(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].ReceivedAt.After(tasks[j].ReceivedAt.Time)
	})
}

// Dashboard is everything the dashboard view shows.
type Dashboard struct {
	Totals      Totals       `json:"totals"`
	ServerStats bool         `json:"serverStats"`
	Categories  []Category   `json:"categories"`
	Buckets     Buckets      `json:"buckets"`
	Recent      []model.Task `json:"recent"`
}

func Build(list model.TaskList) Dashboard {
	stats, server := ResolveStats(list)
	return Dashboard{
		Totals:      TotalsOf(stats),
		ServerStats: server,
		Categories:  Categories(list.Tasks),
		Buckets:     Partition(list.Tasks),
		Recent:      Recent(list.Tasks, recentCount),
	}
}
