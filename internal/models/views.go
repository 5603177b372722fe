package models

import "time"

type ValidatorStats struct {
	TotalReviewed int     `json:"totalReviewed"`
	ApprovalRate  float64 `json:"approvalRate"`
	AvgReviewTime float64 `json:"avgReviewTime"` // hours
	PendingCount  int     `json:"pendingCount"`
	TodayReviewed int     `json:"todayReviewed"`
}

type SubmissionCounts struct {
	Pending     int `json:"PENDING"`
	UnderReview int `json:"UNDER_REVIEW"`
	Approved    int `json:"APPROVED"`
	Rejected    int `json:"REJECTED"`
	Total       int `json:"total"`
}

// Add increments the bucket for status by n.
func (c *SubmissionCounts) Add(status SubmissionStatus, n int) {
	switch status {
	case StatusPending:
		c.Pending += n
	case StatusUnderReview:
		c.UnderReview += n
	case StatusApproved:
		c.Approved += n
	case StatusRejected:
		c.Rejected += n
	default:
		return
	}
	c.Total += n
}

type PrioritizedSubmissions struct {
	High   []Submission `json:"high"`
	Medium []Submission `json:"medium"`
	Low    []Submission `json:"low"`
}

type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

func (t Timeframe) Duration() (time.Duration, bool) {
	switch t {
	case TimeframeDay:
		return 24 * time.Hour, true
	case TimeframeWeek:
		return 7 * 24 * time.Hour, true
	case TimeframeMonth:
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}

type StatusCount struct {
	Status SubmissionStatus `json:"status"`
	Count  int              `json:"count"`
}

type ValidatorPerformance struct {
	ReviewedBy     string  `json:"reviewedBy"`
	Count          int     `json:"count"`
	AvgReviewHours float64 `json:"avgReviewHours"`
}

type RewardDistribution struct {
	ApprovedFLB float64 `json:"approvedFLB"`
	Count       int     `json:"count"`
}

type ValidatorAnalytics struct {
	Timeframe            Timeframe              `json:"timeframe"`
	Since                time.Time              `json:"since"`
	SubmissionStats      []StatusCount          `json:"submissionStats"`
	ValidatorPerformance []ValidatorPerformance `json:"validatorPerformance"`
	RewardDistribution   RewardDistribution     `json:"rewardDistribution"`
}

const (
	EventSubmissionApproved = "submission.approved"
	EventSubmissionRejected = "submission.rejected"
)

// ReviewEvent is an outbox record emitted for every review transition. It is
// consumed by token-minting and notification services downstream.
type ReviewEvent struct {
	ID              string     `json:"id"`
	EventType       string     `json:"eventType"`
	SubmissionID    string     `json:"submissionId"`
	SubmitterID     string     `json:"submitterId"`
	ValidatorWallet string     `json:"validatorWallet"`
	Decision        Decision   `json:"decision"`
	RequestedFLB    float64    `json:"requestedFLB"`
	GrantedFLB      *float64   `json:"grantedFLB,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	SubmittedAt     time.Time  `json:"submittedAt"`
	ReviewedAt      time.Time  `json:"reviewedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	Attempts        int        `json:"attempts"`
	LastError       *string    `json:"lastError,omitempty"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
	ArchiveKey      *string    `json:"archiveKey,omitempty"`
}
