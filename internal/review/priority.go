package review

import "github.com/flameborn/validator/internal/models"

const (
	highPriorityAbove   = 100
	mediumPriorityAbove = 50
)

// PriorityFor classifies a requested reward. The result is fixed at creation
// and never recomputed when a reviewer adjusts the grant.
func PriorityFor(requestedFLB float64) models.Priority {
	switch {
	case requestedFLB > highPriorityAbove:
		return models.PriorityHigh
	case requestedFLB > mediumPriorityAbove:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// Partition splits submissions into priority buckets, keeping input order.
func Partition(subs []models.Submission) models.PrioritizedSubmissions {
	out := models.PrioritizedSubmissions{
		High:   []models.Submission{},
		Medium: []models.Submission{},
		Low:    []models.Submission{},
	}
	for _, sub := range subs {
		switch sub.Priority {
		case models.PriorityHigh:
			out.High = append(out.High, sub)
		case models.PriorityMedium:
			out.Medium = append(out.Medium, sub)
		default:
			out.Low = append(out.Low, sub)
		}
	}
	return out
}
