package statusutil

import (
	"fmt"
	"strings"

	"mailtasks-cli/internal/model"
)

// NormalizeStatus parses user input into a task status.
func NormalizeStatus(s string) (model.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "pendente", "todo":
		return model.StatusPending, nil
	case "viewed", "visto", "seen":
		return model.StatusViewed, nil
	case "completed", "concluida", "concluída", "done":
		return model.StatusCompleted, nil
	case "archived", "arquivada":
		return model.StatusArchived, nil
	case "":
		return "", fmt.Errorf("invalid status: empty")
	default:
		return "", fmt.Errorf("invalid status: %s", strings.TrimSpace(s))
	}
}

// NormalizeUrgency parses user input into an urgency tier.
func NormalizeUrgency(s string) (model.Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgente", "urgent", "high":
		return model.UrgencyUrgent, nil
	case "mediano", "medium", "normal":
		return model.UrgencyMedium, nil
	case "rotineira", "routine", "low":
		return model.UrgencyRoutine, nil
	case "":
		return "", fmt.Errorf("invalid urgency: empty")
	default:
		return "", fmt.Errorf("invalid urgency: %s (one of URGENTE, MEDIANO, ROTINEIRA)", strings.TrimSpace(s))
	}
}

// Order places a status on the forward lifecycle chain.
// ARCHIVED sits outside the chain and reports -1, as does any unknown status.
func Order(s model.Status) int {
	switch s {
	case model.StatusPending:
		return 0
	case model.StatusViewed:
		return 1
	case model.StatusCompleted:
		return 2
	default:
		return -1
	}
}

func IsTerminal(s model.Status) bool {
	return s == model.StatusCompleted || s == model.StatusArchived
}

// CanTransition reports whether from -> to respects lifecycle monotonicity.
// Repeating VIEWED or COMPLETED is allowed (idempotent); ARCHIVED is only
// reachable from a non-terminal status.
func CanTransition(from, to model.Status) bool {
	if to == model.StatusArchived {
		return !IsTerminal(from) && Order(from) >= 0
	}
	if from == model.StatusArchived {
		return false
	}
	fo, to2 := Order(from), Order(to)
	if fo < 0 || to2 < 0 {
		return false
	}
	if fo == to2 {
		return to != model.StatusPending
	}
	return to2 > fo
}

// Label is the short display label used in lists.
func Label(s model.Status) string {
	switch s {
	case model.StatusPending:
		return "PENDING"
	case model.StatusViewed:
		return "VIEWED"
	case model.StatusCompleted:
		return "DONE"
	case model.StatusArchived:
		return "ARCHIVED"
	case "":
		return "-"
	default:
		return string(s)
	}
}
