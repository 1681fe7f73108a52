package db

import (
	"fmt"
	"time"
)

// CaseStatus tracks what happened to the missing person.
type CaseStatus string

const (
	CaseMissing            CaseStatus = "missing"
	CaseFound              CaseStatus = "found"
	CaseUnderInvestigation CaseStatus = "under_investigation"
)

// SubmissionStatus tracks the review lifecycle of a submitted case.
type SubmissionStatus string

const (
	SubmissionActive     SubmissionStatus = "active"
	SubmissionInProgress SubmissionStatus = "in_progress"
	SubmissionClosed     SubmissionStatus = "closed"
	SubmissionRejected   SubmissionStatus = "rejected"
)

// MatchStatus is the review state of a MatchCandidate.
type MatchStatus string

const (
	MatchPending     MatchStatus = "pending"
	MatchConfirmed   MatchStatus = "confirmed"
	MatchRejected    MatchStatus = "rejected"
	MatchUnderReview MatchStatus = "under_review"
)

// ReportStatus is the verification state of a community report.
type ReportStatus string

const (
	ReportNew        ReportStatus = "new"
	ReportUnverified ReportStatus = "unverified"
	ReportVerified   ReportStatus = "verified"
	ReportFalse      ReportStatus = "false"
)

// RequestStatus is the state of a location-sharing request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// NotificationType values are wire-stable; clients switch on them.
type NotificationType string

const (
	TypeSystem           NotificationType = "system"
	TypeMissingPerson    NotificationType = "missing_person"
	TypeReport           NotificationType = "report"
	TypeLocationRequest  NotificationType = "location_request"
	TypeLocationResponse NotificationType = "location_response"
	TypeCaseUpdate       NotificationType = "case_update"
	TypeLocationAlert    NotificationType = "location_alert"
)

// TargetKind enumerates the entities a notification may point at.
type TargetKind string

const (
	TargetCase            TargetKind = "case"
	TargetCaseUpdate      TargetKind = "case_update"
	TargetReport          TargetKind = "report"
	TargetLocationRequest TargetKind = "location_request"
	TargetUser            TargetKind = "user"
)

// User table
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Staff        bool   `gorm:"not null;default:false;index"`
	Gender       string `gorm:"size:16"`
	PhoneNumber  string `gorm:"size:15"`
	Language     string `gorm:"size:10;default:english"`
	// DeviceToken is the FCM registration token, nil when the user has no
	// registered device or the token was reported invalid.
	DeviceToken *string   `gorm:"size:512"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Case represents a missing-person record.
//
// PhotoKey is the object key in the photo store; an empty key means no photo
// was submitted and the case is excluded from matching sweeps.
type Case struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement"`
	FirstName        string `gorm:"size:100;not null"`
	LastName         string `gorm:"size:100;not null"`
	Age              uint
	Gender           string `gorm:"size:6;not null;index"`
	PhotoKey         string `gorm:"size:255"`
	Description      string `gorm:"type:text"`
	LastSeenDate     time.Time
	LastSeenLocation string `gorm:"size:200"`
	Latitude         *float64
	Longitude        *float64
	ReporterID       *uint64 `gorm:"index"`
	Reporter         *User
	Status           CaseStatus       `gorm:"size:50;not null;default:missing"`
	SubmissionStatus SubmissionStatus `gorm:"size:20;not null;default:in_progress;index"`
	ReportedAt       time.Time        `gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime"`
}

func (c *Case) FullName() string {
	return fmt.Sprintf("%s %s", c.FirstName, c.LastName)
}

// CaseUpdate is an immutable audit message attached to a case.
type CaseUpdate struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	CaseID    uint64 `gorm:"not null;index"`
	Case      *Case
	Message   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// MatchCandidate links two cases as a possible identity match.
//
// The (original, candidate) pair is ordered: matching is triggered from the
// newly created case's perspective only, so (A,B) and (B,A) are distinct
// records. The unique index is the source of truth for "already exists"; the
// repository's pre-insert check is advisory.
type MatchCandidate struct {
	ID              uint64 `gorm:"primaryKey;autoIncrement"`
	OriginalCaseID  uint64 `gorm:"not null;uniqueIndex:idx_original_candidate,priority:1"`
	CandidateCaseID uint64 `gorm:"not null;uniqueIndex:idx_original_candidate,priority:2"`
	OriginalCase    *Case  `gorm:"foreignKey:OriginalCaseID"`
	CandidateCase   *Case  `gorm:"foreignKey:CandidateCaseID"`
	// Score is a similarity percentage, 0-100.
	Score float64 `gorm:"not null;index"`
	// Distance is the raw embedding distance the score was derived from.
	Distance   *float64
	Status     MatchStatus `gorm:"size:20;not null;default:pending;index"`
	ReviewedAt *time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// ConfidenceLevel buckets the score for the review UI: high >= 90,
// medium 46-89, low < 46.
func (m *MatchCandidate) ConfidenceLevel() string {
	switch {
	case m.Score >= 90:
		return "high"
	case m.Score >= 46:
		return "medium"
	default:
		return "low"
	}
}

// Report is a community tip about a case. UserID is nil for anonymous tips.
type Report struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	CaseID      uint64 `gorm:"not null;index"`
	Case        *Case
	UserID      *uint64 `gorm:"index"`
	User        *User
	Note        string       `gorm:"type:text;not null"`
	Status      ReportStatus `gorm:"size:10;not null;default:new"`
	SubmittedAt time.Time    `gorm:"autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"autoUpdateTime"`
}

// LocationRequest asks another user to share their live location.
type LocationRequest struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	SenderID   uint64 `gorm:"not null;uniqueIndex:idx_sender_receiver,priority:1"`
	ReceiverID uint64 `gorm:"not null;uniqueIndex:idx_sender_receiver,priority:2"`
	Sender     *User  `gorm:"foreignKey:SenderID"`
	Receiver   *User  `gorm:"foreignKey:ReceiverID"`
	Status     RequestStatus `gorm:"size:10;not null;default:pending"`
	CreatedAt  time.Time     `gorm:"autoCreateTime"`
	UpdatedAt  time.Time     `gorm:"autoUpdateTime"`
}

// Notification is a per-recipient, per-event inbox entry. The record is the
// authoritative log; push delivery on top of it is best-effort.
//
// TargetKind/TargetID form a tagged reference to the triggering entity.
// TargetID of zero means the notification has no target.
type Notification struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	UserID     uint64 `gorm:"not null;index:idx_user_target,priority:1"`
	User       *User
	Message    string           `gorm:"type:text;not null"`
	Type       NotificationType `gorm:"size:20;not null;index:idx_user_target,priority:4"`
	TargetKind TargetKind       `gorm:"size:20;index:idx_user_target,priority:2"`
	TargetID   uint64           `gorm:"index:idx_user_target,priority:3"`
	Read       bool             `gorm:"not null;default:false"`
	CreatedAt  time.Time        `gorm:"autoCreateTime;index"`
}
