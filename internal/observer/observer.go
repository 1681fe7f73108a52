// Package observer translates entity lifecycle events into core actions:
// scheduling matching sweeps and fanning out notifications. Handlers are
// idempotent against event replays wherever the notification log's dedup
// invariant allows it.
package observer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/findthemapp/findthem-core/internal/cache"
	"github.com/findthemapp/findthem-core/internal/db"
	svcErr "github.com/findthemapp/findthem-core/internal/errors"
	"github.com/findthemapp/findthem-core/internal/events"
	"github.com/findthemapp/findthem-core/internal/notify"
	"github.com/findthemapp/findthem-core/internal/repository"
	"github.com/findthemapp/findthem-core/internal/worker"
)

// statusUpdateTemplates are the audit messages appended when a case moves
// through its review lifecycle.
var statusUpdateTemplates = map[db.SubmissionStatus]string{
	db.SubmissionActive:     "We start investigating your case.",
	db.SubmissionInProgress: "We're looking and verifying your case.",
	db.SubmissionClosed:     "Your case has been closed. Thank you for using our service.",
	db.SubmissionRejected:   "Your case submission has been rejected. Please contact support if you believe this is an error.",
}

const (
	receivedUpdateMessage = "Thank you for submitting your case; we've received your information."
	// verifyingMessage must stay stable: its prefix doubles as the dedup key
	// for the once-per-case reporter notification on incoming reports.
	verifyingMessage       = "There's an update about your case; we're verifying it."
	verifyingMessagePrefix = "There's an update about your case"
)

// Observer subscribes to the event bus and drives the notification and
// matching pipelines.
type Observer struct {
	notifier      *notify.Notifier
	users         *repository.UserRepository
	cases         *repository.CaseRepository
	notifications *repository.NotificationRepository
	cache         *cache.RedisCache
	scheduler     worker.MatchScheduler
	bus           *events.Bus
	log           *slog.Logger
}

// New builds an Observer.
func New(
	notifier *notify.Notifier,
	users *repository.UserRepository,
	cases *repository.CaseRepository,
	notifications *repository.NotificationRepository,
	redis *cache.RedisCache,
	scheduler worker.MatchScheduler,
	bus *events.Bus,
	log *slog.Logger,
) *Observer {
	return &Observer{
		notifier:      notifier,
		users:         users,
		cases:         cases,
		notifications: notifications,
		cache:         redis,
		scheduler:     scheduler,
		bus:           bus,
		log:           log,
	}
}

// Register subscribes the observer to the bus.
func (o *Observer) Register() {
	o.bus.Subscribe(o.handle)
}

func (o *Observer) handle(ctx context.Context, e events.Event) error {
	switch ev := e.(type) {
	case events.CaseCreated:
		return o.onCaseCreated(ctx, ev)
	case events.CaseStatusChanged:
		return o.onCaseStatusChanged(ctx, ev)
	case events.CaseUpdateCreated:
		return o.onCaseUpdateCreated(ctx, ev)
	case events.ReportCreated:
		return o.onReportCreated(ctx, ev)
	case events.ReportStatusChanged:
		return o.onReportStatusChanged(ctx, ev)
	case events.LocationRequestSent:
		return o.onLocationRequestSent(ctx, ev)
	case events.LocationRequestResponded:
		return o.onLocationRequestResponded(ctx, ev)
	case events.LocationAlertSent:
		return o.onLocationAlert(ctx, ev)
	case events.MatchesFound:
		return o.onMatchesFound(ctx, ev)
	default:
		return nil
	}
}

// onCaseCreated appends the initial audit updates, schedules the matching
// sweep and, when the case is born publicly visible, broadcasts it.
func (o *Observer) onCaseCreated(ctx context.Context, e events.CaseCreated) error {
	c := e.Case

	for _, message := range []string{receivedUpdateMessage, statusUpdateTemplates[db.SubmissionInProgress]} {
		update, err := o.cases.AddUpdate(ctx, c.ID, message)
		if err != nil {
			return fmt.Errorf("initial case update: %w", err)
		}
		o.bus.Publish(ctx, events.CaseUpdateCreated{Case: c, Update: *update})
	}

	if c.PhotoKey != "" {
		o.scheduler.ScheduleSweep(c.ID)
	} else {
		o.log.Info("case has no photo, matching skipped", "case_id", c.ID)
	}

	if c.SubmissionStatus == db.SubmissionActive {
		if err := o.broadcastNewCase(ctx, &c); err != nil {
			return err
		}
	}
	return o.alertStaffNewCase(ctx, &c)
}

// broadcastNewCase tells every regular user about a publicly visible case.
// Idempotent per case: a replay that finds any missing_person notification
// for this case skips the whole broadcast.
func (o *Observer) broadcastNewCase(ctx context.Context, c *db.Case) error {
	exists, err := o.notifications.ExistsForTarget(ctx, db.TargetCase, c.ID, db.TypeMissingPerson)
	if err != nil {
		return err
	}
	if exists {
		o.log.Info("case broadcast already sent, skipping", "case_id", c.ID)
		return nil
	}

	audience, err := o.users.ListNonStaff(ctx)
	if err != nil {
		return err
	}

	message := fmt.Sprintf(
		"New missing person: %q. Click to view details and help if you can.", c.FullName())
	o.notifier.Send(ctx, audience, message,
		&notify.Target{Kind: db.TargetCase, ID: c.ID},
		db.TypeMissingPerson,
		notify.Options{
			PushTitle: "New Missing Person",
			PushData: map[string]string{
				"person_name": c.FullName(),
				"case_id":     strconv.FormatUint(c.ID, 10),
				"action":      "view_case",
			},
		})
	return nil
}

// alertStaffNewCase notifies staff of every submission, skipping the
// reporter when a staff member files their own case.
func (o *Observer) alertStaffNewCase(ctx context.Context, c *db.Case) error {
	staff, err := o.users.ListStaff(ctx)
	if err != nil {
		return err
	}
	recipients := make([]db.User, 0, len(staff))
	for _, u := range staff {
		if c.ReporterID != nil && *c.ReporterID == u.ID {
			continue
		}
		recipients = append(recipients, u)
	}
	if len(recipients) == 0 {
		return nil
	}

	reporterName := "Unknown"
	if c.ReporterID != nil {
		if reporter, err := o.users.GetByID(ctx, *c.ReporterID); err == nil {
			reporterName = reporter.Username
		}
	}

	message := fmt.Sprintf("Admin alert: missing person %q (case #%d) submitted by %s.",
		c.FullName(), c.ID, reporterName)
	o.notifier.Send(ctx, recipients, message,
		&notify.Target{Kind: db.TargetCase, ID: c.ID},
		db.TypeMissingPerson,
		notify.Options{
			PushTitle: "Admin Alert - New Case",
			PushData: map[string]string{
				"person_name": c.FullName(),
				"case_id":     strconv.FormatUint(c.ID, 10),
				"admin_alert": "true",
				"action":      "admin_review",
			},
		})
	return nil
}

// onCaseStatusChanged appends the templated audit update (which in turn
// notifies the reporter) and broadcasts cases entering public visibility.
func (o *Observer) onCaseStatusChanged(ctx context.Context, e events.CaseStatusChanged) error {
	if e.Old == e.New {
		return nil
	}

	if message, ok := statusUpdateTemplates[e.New]; ok {
		update, err := o.cases.AddUpdate(ctx, e.Case.ID, message)
		if err != nil {
			return fmt.Errorf("status case update: %w", err)
		}
		o.bus.Publish(ctx, events.CaseUpdateCreated{Case: e.Case, Update: *update})
	}

	if e.New == db.SubmissionActive {
		return o.broadcastNewCase(ctx, &e.Case)
	}
	return nil
}

// onCaseUpdateCreated notifies the case's reporter of a new update, unless
// the reporter is staff (staff-authored cases do not self-notify).
func (o *Observer) onCaseUpdateCreated(ctx context.Context, e events.CaseUpdateCreated) error {
	if e.Case.ReporterID == nil {
		o.log.Debug("case has no reporter, update not notified", "case_id", e.Case.ID)
		return nil
	}
	reporter, err := o.users.GetByID(ctx, *e.Case.ReporterID)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if reporter.Staff {
		return nil
	}

	exists, err := o.notifications.ExistsForUserTarget(
		ctx, reporter.ID, db.TargetCaseUpdate, e.Update.ID, db.TypeCaseUpdate)
	if err != nil {
		return err
	}
	if exists {
		o.log.Debug("update already notified, skipping", "update_id", e.Update.ID)
		return nil
	}

	message := fmt.Sprintf("New update for %s: %s", e.Case.FullName(), e.Update.Message)
	o.notifier.SendOne(ctx, *reporter, message,
		&notify.Target{Kind: db.TargetCaseUpdate, ID: e.Update.ID},
		db.TypeCaseUpdate,
		notify.Options{
			PushTitle: "Case Update",
			PushBody:  fmt.Sprintf("Update for %s", e.Case.FullName()),
			PushData: map[string]string{
				"person_name":    e.Case.FullName(),
				"case_id":        strconv.FormatUint(e.Case.ID, 10),
				"update_id":      strconv.FormatUint(e.Update.ID, 10),
				"update_message": truncate(e.Update.Message, 100),
				"action":         "view_update",
			},
		})
	return nil
}

// onReportCreated notifies staff of the new report and tells the case's
// reporter, once per case, that something is being verified.
func (o *Observer) onReportCreated(ctx context.Context, e events.ReportCreated) error {
	exists, err := o.notifications.ExistsForTarget(ctx, db.TargetReport, e.Report.ID, db.TypeReport)
	if err != nil {
		return err
	}
	if exists {
		o.log.Info("report already notified, skipping", "report_id", e.Report.ID)
		return nil
	}

	submitterName := "Anonymous"
	if e.Report.UserID != nil {
		if submitter, err := o.users.GetByID(ctx, *e.Report.UserID); err == nil {
			submitterName = submitter.Username
		}
	}

	staff, err := o.users.ListStaff(ctx)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("New report (#%d) on %q submitted by %s.",
		e.Report.ID, e.Case.FullName(), submitterName)
	o.notifier.Send(ctx, staff, message,
		&notify.Target{Kind: db.TargetReport, ID: e.Report.ID},
		db.TypeReport,
		notify.Options{
			PushTitle: "New Report Received",
			PushBody:  fmt.Sprintf("New report on %s", e.Case.FullName()),
			PushData: map[string]string{
				"report_id":   strconv.FormatUint(e.Report.ID, 10),
				"person_name": e.Case.FullName(),
				"case_id":     strconv.FormatUint(e.Case.ID, 10),
				"reporter":    submitterName,
				"action":      "review_report",
			},
		})

	return o.notifyCaseOwnerOfReport(ctx, e)
}

// notifyCaseOwnerOfReport sends the generic "we're verifying it" message to
// the case's non-staff owner, at most once per case across all its reports.
func (o *Observer) notifyCaseOwnerOfReport(ctx context.Context, e events.ReportCreated) error {
	if e.Case.ReporterID == nil {
		return nil
	}
	owner, err := o.users.GetByID(ctx, *e.Case.ReporterID)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if owner.Staff {
		return nil
	}

	exists, err := o.notifications.ExistsWithMessage(
		ctx, owner.ID, db.TargetCase, e.Case.ID, db.TypeCaseUpdate, verifyingMessagePrefix)
	if err != nil {
		return err
	}
	if exists {
		o.log.Debug("case owner already told about reports", "case_id", e.Case.ID)
		return nil
	}

	o.notifier.SendOne(ctx, *owner, verifyingMessage,
		&notify.Target{Kind: db.TargetCase, ID: e.Case.ID},
		db.TypeCaseUpdate,
		notify.Options{
			PushTitle: "Case Update",
			PushBody:  "New update on your case",
			PushData: map[string]string{
				"person_name": e.Case.FullName(),
				"case_id":     strconv.FormatUint(e.Case.ID, 10),
				"report_id":   strconv.FormatUint(e.Report.ID, 10),
				"action":      "view_case",
			},
		})
	return nil
}

// onReportStatusChanged tells a non-anonymous submitter how their report was
// resolved.
func (o *Observer) onReportStatusChanged(ctx context.Context, e events.ReportStatusChanged) error {
	if e.Report.UserID == nil || e.Old == e.New {
		return nil
	}
	submitter, err := o.users.GetByID(ctx, *e.Report.UserID)
	if err != nil {
		if svcErr.IsNotFound(err) {
			return nil
		}
		return err
	}

	message := fmt.Sprintf("Your report on %q has been marked %s.", e.Case.FullName(), e.New)
	o.notifier.SendOne(ctx, *submitter, message,
		&notify.Target{Kind: db.TargetReport, ID: e.Report.ID},
		db.TypeReport,
		notify.Options{
			PushTitle: "Report Status",
			PushData: map[string]string{
				"report_id":  strconv.FormatUint(e.Report.ID, 10),
				"new_status": string(e.New),
				"action":     "view_report",
			},
		})
	return nil
}

func (o *Observer) onLocationRequestSent(ctx context.Context, e events.LocationRequestSent) error {
	exists, err := o.notifications.ExistsForUserTarget(
		ctx, e.Receiver.ID, db.TargetLocationRequest, e.Request.ID, db.TypeLocationRequest)
	if err != nil {
		return err
	}
	if exists {
		o.log.Debug("location request already notified", "request_id", e.Request.ID)
		return nil
	}

	message := fmt.Sprintf("%s has sent you a location sharing request.", e.Sender.Username)
	o.notifier.SendOne(ctx, e.Receiver, message,
		&notify.Target{Kind: db.TargetLocationRequest, ID: e.Request.ID},
		db.TypeLocationRequest,
		notify.Options{
			PushBody: fmt.Sprintf("Location request from %s", e.Sender.Username),
			PushData: map[string]string{
				"sender_name": e.Sender.Username,
				"sender_id":   strconv.FormatUint(e.Sender.ID, 10),
				"request_id":  strconv.FormatUint(e.Request.ID, 10),
				"action":      "respond_to_request",
			},
		})
	return nil
}

func (o *Observer) onLocationRequestResponded(ctx context.Context, e events.LocationRequestResponded) error {
	statusText := "declined"
	action := "view_request"
	if e.Status == db.RequestAccepted {
		statusText = "accepted"
		action = "view_location"
	}

	exists, err := o.notifications.ExistsWithMessage(
		ctx, e.Sender.ID, db.TargetLocationRequest, e.Request.ID, db.TypeLocationResponse, statusText)
	if err != nil {
		return err
	}
	if exists {
		o.log.Debug("location response already notified", "request_id", e.Request.ID)
		return nil
	}

	message := fmt.Sprintf("%s has %s your location sharing request.", e.Receiver.Username, statusText)
	o.notifier.SendOne(ctx, e.Sender, message,
		&notify.Target{Kind: db.TargetLocationRequest, ID: e.Request.ID},
		db.TypeLocationResponse,
		notify.Options{
			PushTitle: fmt.Sprintf("Location Request %s", title(statusText)),
			PushBody:  fmt.Sprintf("Request %s by %s", statusText, e.Receiver.Username),
			PushData: map[string]string{
				"receiver_name": e.Receiver.Username,
				"receiver_id":   strconv.FormatUint(e.Receiver.ID, 10),
				"request_id":    strconv.FormatUint(e.Request.ID, 10),
				"response":      statusText,
				"action":        action,
			},
		})
	return nil
}

// onLocationAlert delivers an alert unless the same sender already alerted
// the same recipient within the trailing window.
func (o *Observer) onLocationAlert(ctx context.Context, e events.LocationAlertSent) error {
	fresh, err := o.cache.MarkAlertWindow(ctx, e.Sender.ID, e.Recipient.ID)
	if err != nil {
		// The window is a dedup optimization, not the log of record; on a
		// cache outage delivering twice beats delivering never.
		o.log.Warn("alert dedup window unavailable", "err", err)
		fresh = true
	}
	if !fresh {
		o.log.Info("recent alert exists, suppressing duplicate",
			"sender_id", e.Sender.ID, "recipient_id", e.Recipient.ID)
		return nil
	}

	message := fmt.Sprintf("%s sent you a location alert.", e.Sender.Username)
	o.notifier.SendOne(ctx, e.Recipient, message,
		&notify.Target{Kind: db.TargetUser, ID: e.Sender.ID},
		db.TypeLocationAlert,
		notify.Options{
			PushBody: fmt.Sprintf("Location alert from %s", e.Sender.Username),
			PushData: map[string]string{
				"sender_name": e.Sender.Username,
				"sender_id":   strconv.FormatUint(e.Sender.ID, 10),
				"alert_type":  "location_alert",
				"action":      "view_location",
			},
		})
	return nil
}

// onMatchesFound alerts staff that a sweep produced candidates for review.
func (o *Observer) onMatchesFound(ctx context.Context, e events.MatchesFound) error {
	if len(e.Matches) == 0 {
		return nil
	}
	staff, err := o.users.ListStaff(ctx)
	if err != nil {
		return err
	}

	top := e.Matches[0]
	message := fmt.Sprintf("AI scan found %d potential match(es) for %q (case #%d), top score %.1f%%.",
		len(e.Matches), e.Case.FullName(), e.Case.ID, top.Score)
	o.notifier.Send(ctx, staff, message,
		&notify.Target{Kind: db.TargetCase, ID: e.Case.ID},
		db.TypeSystem,
		notify.Options{
			PushTitle: "Potential Match Found",
			PushData: map[string]string{
				"person_name": e.Case.FullName(),
				"case_id":     strconv.FormatUint(e.Case.ID, 10),
				"match_count": strconv.Itoa(len(e.Matches)),
				"action":      "review_matches",
			},
		})
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
