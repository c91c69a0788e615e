package synccache

import (
	"time"

	"mailtasks-cli/internal/model"
)

// Snapshot is a point-in-time view of the replica.
type Snapshot struct {
	Tasks      []model.Task
	Stats      *model.TaskStats
	Pagination *model.Pagination
	FetchedAt  time.Time
	// Err is the failure of the most recent refresh, if it failed. The
	// collection is still the one from the last success.
	Err error
	// Loaded is false until the first successful fetch.
	Loaded  bool
	Version uint64

	index map[model.TaskID]int
}

func newSnapshot(list model.TaskList, at time.Time, version uint64) Snapshot {
	tasks := make([]model.Task, 0, len(list.Tasks))
	index := make(map[model.TaskID]int, len(list.Tasks))
	for _, t := range list.Tasks {
		if i, dup := index[t.ID]; dup {
			tasks[i] = t
			continue
		}
		index[t.ID] = len(tasks)
		tasks = append(tasks, t)
	}
	s := Snapshot{
		Tasks:     tasks,
		FetchedAt: at,
		Loaded:    true,
		Version:   version,
		index:     index,
	}
	if list.Stats != nil {
		st := *list.Stats
		s.Stats = &st
	}
	if list.Pagination != nil {
		pg := *list.Pagination
		s.Pagination = &pg
	}
	return s
}

func (s Snapshot) Find(id model.TaskID) (model.Task, bool) {
	i, ok := s.index[id]
	if !ok || i >= len(s.Tasks) {
		return model.Task{}, false
	}
	return s.Tasks[i], true
}

func (s Snapshot) Contains(id model.TaskID) bool {
	_, ok := s.Find(id)
	return ok
}

// List returns the snapshot in the resource client's shape.
func (s Snapshot) List() model.TaskList {
	return model.TaskList{Tasks: s.Tasks, Stats: s.Stats, Pagination: s.Pagination}
}

// Stale reports whether the snapshot is older than maxAge.
func (s Snapshot) Stale(now time.Time, maxAge time.Duration) bool {
	return !s.Loaded || now.Sub(s.FetchedAt) > maxAge
}
