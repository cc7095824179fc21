package assignment

import "cleanservice/internal/domain"

// Notifier pushes committed notifications to connected staff.
type Notifier interface {
	Push(notifications []*domain.AssignmentNotification)
}

// Recorder counts assignment transitions. *metrics.Metrics implements it.
type Recorder interface {
	AssignmentTransition(status string)
}

type nopNotifier struct{}

func (nopNotifier) Push([]*domain.AssignmentNotification) {}

type nopRecorder struct{}

func (nopRecorder) AssignmentTransition(string) {}
