package tables

import (
	"context"

	"lifeos/internal/store"
)

// StatusCompleted is the task status that moves a task to the completed view.
const StatusCompleted = "completed"

// TaskView splits the task table by completion. All keeps table order.
type TaskView struct {
	Active    []store.Record `json:"active"`
	Completed []store.Record `json:"completed"`
	All       []store.Record `json:"all"`
}

// Tasks reads the task table and derives the views.
func (s *Service) Tasks(ctx context.Context) TaskView {
	all := s.store.ReadTable(ctx, Tasks)
	view := TaskView{Active: []store.Record{}, Completed: []store.Record{}, All: all}

	for _, task := range all {
		if task.Status() == StatusCompleted {
			view.Completed = append(view.Completed, task)
		} else {
			view.Active = append(view.Active, task)
		}
	}

	return view
}
