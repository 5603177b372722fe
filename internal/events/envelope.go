// Package events delivers review-decision events to downstream consumers:
// Kafka for token minting and notifications, S3 for the durable archive.
package events

import (
	"fmt"
	"time"

	"github.com/flameborn/validator/internal/canonical"
	"github.com/flameborn/validator/internal/models"
)

// Envelope is the wire shape of a review event. Delivery bookkeeping
// (attempts, last error, archive key) stays in the outbox.
func Envelope(ev models.ReviewEvent) map[string]any {
	env := map[string]any{
		"id":              ev.ID,
		"eventType":       ev.EventType,
		"submissionId":    ev.SubmissionID,
		"submitterId":     ev.SubmitterID,
		"validatorWallet": ev.ValidatorWallet,
		"decision":        string(ev.Decision),
		"requestedFLB":    ev.RequestedFLB,
		"grantedFLB":      nil,
		"notes":           nil,
		"submittedAt":     ev.SubmittedAt.UTC().Format(time.RFC3339Nano),
		"reviewedAt":      ev.ReviewedAt.UTC().Format(time.RFC3339Nano),
		"createdAt":       ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if ev.GrantedFLB != nil {
		env["grantedFLB"] = *ev.GrantedFLB
	}
	if ev.Notes != nil {
		env["notes"] = *ev.Notes
	}
	return env
}

// Encode returns the canonical JSON bytes of the event envelope. The same
// bytes are published and archived.
func Encode(ev models.ReviewEvent) ([]byte, error) {
	body, err := canonical.Marshal(Envelope(ev))
	if err != nil {
		return nil, fmt.Errorf("encode review event %s: %w", ev.ID, err)
	}
	return body, nil
}
