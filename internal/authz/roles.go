package authz

import "taskrewarder/internal/models"

// Completed-task thresholds for the volunteer levels. Part of the stored-data
// contract, do not change.
const (
	IntermediateAt = 3
	AdvancedAt     = 8
)

// LevelForCount maps a verified-task count to a volunteer level.
func LevelForCount(n int) models.Level {
	switch {
	case n >= AdvancedAt:
		return models.LevelAdvanced
	case n >= IntermediateAt:
		return models.LevelIntermediate
	default:
		return models.LevelBeginner
	}
}

// AllowedDifficulties returns the task difficulties a level may take.
func AllowedDifficulties(l models.Level) []models.Difficulty {
	switch l {
	case models.LevelAdvanced:
		return []models.Difficulty{models.DifficultyEasy, models.DifficultyIntermediate, models.DifficultyDifficult}
	case models.LevelIntermediate:
		return []models.Difficulty{models.DifficultyEasy, models.DifficultyIntermediate}
	default:
		return []models.Difficulty{models.DifficultyEasy}
	}
}

// LevelAllows reports whether a volunteer of the given level may take a task
// of the given difficulty.
func LevelAllows(l models.Level, d models.Difficulty) bool {
	for _, allowed := range AllowedDifficulties(l) {
		if d == allowed {
			return true
		}
	}
	return false
}

func IsOrganizer(r models.Role) bool {
	return r == models.RoleOrganizer
}

func IsVolunteer(r models.Role) bool {
	return r == models.RoleVolunteer
}
