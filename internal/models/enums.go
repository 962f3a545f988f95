package models

import (
	"fmt"
)

// Status is the lifecycle stage of a task. The zero value is not a valid status.
type Status int

const (
	StatusToDo Status = iota + 1
	StatusWorkInProgress
	StatusUnderReview
	StatusCompleted
)

// Statuses lists every status in board order
var Statuses = []Status{StatusToDo, StatusWorkInProgress, StatusUnderReview, StatusCompleted}

var statusValues = map[Status]string{
	StatusToDo:           "To Do",
	StatusWorkInProgress: "Work In Progress",
	StatusUnderReview:    "Under Review",
	StatusCompleted:      "Completed",
}

var statusNames = map[string]Status{
	"ToDo":           StatusToDo,
	"WorkInProgress": StatusWorkInProgress,
	"UnderReview":    StatusUnderReview,
	"Completed":      StatusCompleted,
}

// ParseStatus accepts the canonical value ("Work In Progress") or the identifier
// name ("WorkInProgress"). Everything else is rejected.
func ParseStatus(s string) (Status, error) {
	for st, v := range statusValues {
		if v == s {
			return st, nil
		}
	}
	if st, ok := statusNames[s]; ok {
		return st, nil
	}
	return 0, fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// Valid reports whether s is one of the enumerated statuses
func (s Status) Valid() bool {
	_, ok := statusValues[s]
	return ok
}

func (s Status) String() string {
	if v, ok := statusValues[s]; ok {
		return v
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Toggled is the quick complete/reopen shortcut: Completed goes back to
// WorkInProgress, anything else becomes Completed.
func (s Status) Toggled() Status {
	if s == StatusCompleted {
		return StatusWorkInProgress
	}
	return StatusCompleted
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: invalid status %d", ErrValidation, int(s))
	}
	return []byte(statusValues[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Priority classifies urgency. The zero value is not a valid priority.
type Priority int

const (
	PriorityUrgent Priority = iota + 1
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityBacklog
)

// Priorities lists every priority from most to least urgent
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow, PriorityBacklog}

var priorityValues = map[Priority]string{
	PriorityUrgent:  "Urgent",
	PriorityHigh:    "High",
	PriorityMedium:  "Medium",
	PriorityLow:     "Low",
	PriorityBacklog: "Backlog",
}

// ParsePriority accepts only the canonical priority values
func ParsePriority(s string) (Priority, error) {
	for p, v := range priorityValues {
		if v == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown priority %q", ErrValidation, s)
}

// Valid reports whether p is one of the enumerated priorities
func (p Priority) Valid() bool {
	_, ok := priorityValues[p]
	return ok
}

// Rank orders priorities for sorting, Urgent first
func (p Priority) Rank() int {
	if !p.Valid() {
		return len(Priorities) + 1
	}
	return int(p)
}

func (p Priority) String() string {
	if v, ok := priorityValues[p]; ok {
		return v
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: invalid priority %d", ErrValidation, int(p))
	}
	return []byte(priorityValues[p]), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	pr, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = pr
	return nil
}
