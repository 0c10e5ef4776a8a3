package services

import "taskrewarder/internal/models"

// Allowed task status transitions. The lifecycle is strictly linear; there is
// no path backward and no cycle.
var TaskTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusOpen:       {models.StatusInProgress: true},
	models.StatusInProgress: {models.StatusCompleted: true},
	models.StatusCompleted:  {models.StatusVerified: true},
	models.StatusVerified:   {},
}

func canTransition(current, to models.TaskStatus) bool {
	nexts, ok := TaskTransitions[current]
	if !ok {
		return false
	}
	return nexts[to]
}
