package models

import (
	"time"
)

type SubmissionType string

const (
	SubmissionCourseCompletion  SubmissionType = "COURSE_COMPLETION"
	SubmissionPeerReview        SubmissionType = "PEER_REVIEW"
	SubmissionProjectSubmission SubmissionType = "PROJECT_SUBMISSION"
	SubmissionCommunityAction   SubmissionType = "COMMUNITY_ACTION"
)

func (t SubmissionType) Valid() bool {
	switch t {
	case SubmissionCourseCompletion, SubmissionPeerReview, SubmissionProjectSubmission, SubmissionCommunityAction:
		return true
	}
	return false
}

type EvidenceType string

const (
	EvidenceVideo    EvidenceType = "VIDEO"
	EvidenceImage    EvidenceType = "IMAGE"
	EvidenceDocument EvidenceType = "DOCUMENT"
	EvidenceLink     EvidenceType = "LINK"
)

func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceVideo, EvidenceImage, EvidenceDocument, EvidenceLink:
		return true
	}
	return false
}

type SubmissionStatus string

const (
	StatusPending     SubmissionStatus = "PENDING"
	StatusUnderReview SubmissionStatus = "UNDER_REVIEW"
	StatusApproved    SubmissionStatus = "APPROVED"
	StatusRejected    SubmissionStatus = "REJECTED"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Decision is the outcome a validator assigns to a pending submission.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

func (d Decision) Status() SubmissionStatus {
	return SubmissionStatus(d)
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type CourseSummary struct {
	Name         string  `json:"name"`
	RewardAmount float64 `json:"rewardAmount"`
}

// Submission is a claim of completed work awaiting validator adjudication.
// ReviewedAt and ReviewedBy are set exactly when Status is terminal.
type Submission struct {
	ID             string           `json:"id"`
	SubmitterID    string           `json:"submitterId"`
	SubmissionType SubmissionType   `json:"submissionType"`
	CourseID       *string          `json:"courseId,omitempty"`
	Course         *CourseSummary   `json:"course,omitempty"`
	Title          string           `json:"title"`
	Description    string           `json:"description"`
	EvidenceURL    *string          `json:"evidenceUrl,omitempty"`
	EvidenceType   *EvidenceType    `json:"evidenceType,omitempty"`
	RequestedFLB   float64          `json:"requestedFLB"`
	GrantedFLB     *float64         `json:"grantedFLB,omitempty"`
	Status         SubmissionStatus `json:"status"`
	Priority       Priority         `json:"priority"`
	SubmittedAt    time.Time        `json:"submittedAt"`
	ReviewedAt     *time.Time       `json:"reviewedAt,omitempty"`
	ReviewedBy     *string          `json:"reviewedBy,omitempty"`
	ReviewerNotes  *string          `json:"reviewerNotes,omitempty"`
	IdempotencyKey string           `json:"idempotencyKey,omitempty"`
	Version        int              `json:"version"`
}

type ValidatorRole string

const (
	RoleValidator       ValidatorRole = "VALIDATOR"
	RoleSeniorValidator ValidatorRole = "SENIOR_VALIDATOR"
	RoleAdmin           ValidatorRole = "ADMIN"
)

func (r ValidatorRole) Valid() bool {
	switch r {
	case RoleValidator, RoleSeniorValidator, RoleAdmin:
		return true
	}
	return false
}

const (
	DefaultReputation = 100
	MaxReputation     = 1000
)

type ValidatorProfile struct {
	Wallet          string        `json:"wallet"`
	Name            *string       `json:"name,omitempty"`
	Role            ValidatorRole `json:"role"`
	Specializations []string      `json:"specializations"`
	TotalReviewed   int           `json:"totalReviewed"`
	ApprovedCount   int           `json:"approvedCount"`
	ApprovalRate    float64       `json:"approvalRate"`
	Reputation      int           `json:"reputation"`
	IsActive        bool          `json:"isActive"`
	JoinedAt        time.Time     `json:"joinedAt"`
}

// IsValidator reports whether the profile may perform reviews.
func (p ValidatorProfile) IsValidator() bool {
	return p.IsActive && p.Role.Valid()
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

type Course struct {
	ID           string     `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Description  string     `json:"description" yaml:"description"`
	RewardAmount float64    `json:"rewardAmount" yaml:"rewardAmount"`
	Active       bool       `json:"active" yaml:"active"`
	ContentHash  *string    `json:"contentHash,omitempty" yaml:"contentHash,omitempty"`
	Language     string     `json:"language" yaml:"language"`
	Duration     int        `json:"duration" yaml:"duration"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"-"`
}

// Principal is the authenticated identity on whose behalf an operation runs.
type Principal struct {
	Wallet string `json:"wallet"`
	// Source records how the identity was established: "token", "dev-header" or "claimed".
	Source string `json:"source"`
}
