// Package projection derives view subsets from cached task collections.
// Every function returns a new slice and leaves its input untouched.
package projection

import (
	"slices"

	"github.com/tgienger/teamtrack/internal/models"
)

func filter(tasks []models.Task, keep func(models.Task) bool) []models.Task {
	out := []models.Task{}
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// ByPriority keeps tasks whose priority equals p
func ByPriority(tasks []models.Task, p models.Priority) []models.Task {
	return filter(tasks, func(t models.Task) bool { return t.Priority == p })
}

// ByStatus keeps tasks whose status equals s
func ByStatus(tasks []models.Task, s models.Status) []models.Task {
	return filter(tasks, func(t models.Task) bool { return t.Status == s })
}

// ByProject keeps tasks of one project
func ByProject(tasks []models.Task, projectID int64) []models.Task {
	return filter(tasks, func(t models.Task) bool { return t.ProjectID == projectID })
}

// ByUser keeps tasks the user authored or is assigned to
func ByUser(tasks []models.Task, userID int64) []models.Task {
	return filter(tasks, func(t models.Task) bool {
		return t.AuthorUserID == userID || (t.AssignedUserID != nil && *t.AssignedUserID == userID)
	})
}

// Column is one board lane
type Column struct {
	Status models.Status
	Tasks  []models.Task
}

// Board groups tasks into one column per status, in enumeration order
func Board(tasks []models.Task) []Column {
	cols := make([]Column, len(models.Statuses))
	for i, s := range models.Statuses {
		cols[i] = Column{Status: s, Tasks: ByStatus(tasks, s)}
	}
	return cols
}

// SortByPriority orders tasks Urgent first, then by due date with undated
// tasks last. The sort is stable.
func SortByPriority(tasks []models.Task) []models.Task {
	out := slices.Clone(tasks)
	if out == nil {
		out = []models.Task{}
	}
	slices.SortStableFunc(out, func(a, b models.Task) int {
		if d := a.Priority.Rank() - b.Priority.Rank(); d != 0 {
			return d
		}
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
		return a.DueDate.Compare(*b.DueDate)
	})
	return out
}
