// Package events is the in-process event bus connecting entity mutation
// sites to the observer. Subscribers are an explicit list; there is no
// global registration.
package events

import (
	"github.com/findthemapp/findthem-core/internal/db"
)

// Event is a domain lifecycle fact. Events carry value copies of the
// entities involved so handlers never race the mutation site.
type Event interface {
	Name() string
}

// CaseCreated fires after a new case row is committed.
type CaseCreated struct {
	Case db.Case
}

func (CaseCreated) Name() string { return "case.created" }

// CaseStatusChanged fires when a case's submission status moves.
type CaseStatusChanged struct {
	Case db.Case
	Old  db.SubmissionStatus
	New  db.SubmissionStatus
}

func (CaseStatusChanged) Name() string { return "case.status_changed" }

// CaseUpdateCreated fires after an audit update is appended to a case.
type CaseUpdateCreated struct {
	Case   db.Case
	Update db.CaseUpdate
}

func (CaseUpdateCreated) Name() string { return "case.update_created" }

// ReportCreated fires after a community report is committed.
type ReportCreated struct {
	Report db.Report
	Case   db.Case
}

func (ReportCreated) Name() string { return "report.created" }

// ReportStatusChanged fires when a report's verification status moves.
type ReportStatusChanged struct {
	Report db.Report
	Case   db.Case
	Old    db.ReportStatus
	New    db.ReportStatus
}

func (ReportStatusChanged) Name() string { return "report.status_changed" }

// LocationRequestSent fires after a location-sharing request is created.
type LocationRequestSent struct {
	Request  db.LocationRequest
	Sender   db.User
	Receiver db.User
}

func (LocationRequestSent) Name() string { return "location.request_sent" }

// LocationRequestResponded fires when the receiver accepts or declines.
type LocationRequestResponded struct {
	Request  db.LocationRequest
	Sender   db.User
	Receiver db.User
	Status   db.RequestStatus
}

func (LocationRequestResponded) Name() string { return "location.request_responded" }

// LocationAlertSent fires when a user pushes a location alert to a friend.
type LocationAlertSent struct {
	Sender    db.User
	Recipient db.User
}

func (LocationAlertSent) Name() string { return "location.alert_sent" }

// MatchesFound fires from the background sweep when new match candidates
// were created for a case.
type MatchesFound struct {
	Case    db.Case
	Matches []db.MatchCandidate
}

func (MatchesFound) Name() string { return "match.found" }
