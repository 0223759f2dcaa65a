// Package notifier
package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/samber/lo"
	"gopkg.in/gomail.v2"
)

const timeLayout = "Mon Jan 2 15:04 MST"

// notificationNamespace seeds the name based ids, changing it breaks deduplication
var notificationNamespace = uuid.MustParse("5f0c7a52-3a0e-4b5c-9d6e-0c8b1f3e7a21")

// MailSender is satisfied by *gomail.Dialer
type MailSender interface {
	DialAndSend(messages ...*gomail.Message) error
}

type proposalView struct {
	Id        uint
	Rank      int
	Start     string
	End       string
	Score     int
	Rationale string
}

type templateData struct {
	RecipientName string
	OriginalStart string
	Departure     string
	Violations    []string
	Proposals     []*proposalView
	NewStart      string
	NewEnd        string
}

type metadata struct {
	ConflictId  uint   `json:"conflict_id"`
	BookingId   uint   `json:"booking_id"`
	ProposalIds []uint `json:"proposal_ids,omitempty"`
}

type Notifier struct {
	logger        log.LoggerInterface
	conflicts     ConflictOperationInterface
	notifications NotificationOperationInterface
	mailer        MailSender
	from          string
	templates     map[string]*config.EmailTemplate
	location      *time.Location
}

// NewNotifier builds a notifier, a nil mailer keeps notifications in-app only
func NewNotifier(
	logger log.LoggerInterface,
	conflicts ConflictOperationInterface,
	notifications NotificationOperationInterface,
	mailer MailSender,
	from string,
	templates map[string]*config.EmailTemplate,
	location *time.Location,
) *Notifier {
	if location == nil {
		location = time.UTC
	}
	return &Notifier{
		logger:        logger,
		conflicts:     conflicts,
		notifications: notifications,
		mailer:        mailer,
		from:          from,
		templates:     templates,
		location:      location,
	}
}

// NotificationId is stable for a conflict, kind and recipient so redelivered
// jobs collapse onto the same row
func NotificationId(conflictId uint, kind string, userId uint) string {
	return uuid.NewSHA1(notificationNamespace, []byte(fmt.Sprintf("%d:%s:%d", conflictId, kind, userId))).String()
}

// KindFor maps the conflict state to the notification it triggers, ok is
// false while the conflict is still being processed
func KindFor(conflict *WeatherConflict) (kind string, ok bool) {
	switch conflict.Status {
	case ConflictStatusProposalsReady:
		return NotificationProposalsReady, true
	case ConflictStatusResolved:
		switch conflict.ResolutionMethod {
		case ResolutionNoSlotsAvailable:
			return NotificationNoSlotsAvailable, true
		case ResolutionRescheduled:
			return NotificationRescheduleConfirmed, true
		case ResolutionCancelled:
			return NotificationBookingCancelled, true
		}
	}
	return "", false
}

// NotifyConflict tells the student and the instructor about the current
// state of the conflict. Each recipient gets at most one notification per
// kind, email goes out before the row is written so a failed send is retried.
func (notifier *Notifier) NotifyConflict(conflictId uint) (sent int, err error) {
	conflict, err := notifier.conflicts.GetConflictById(conflictId)
	if err != nil {
		return 0, err
	}
	kind, ok := KindFor(conflict)
	if !ok {
		notifier.logger.DebugF("Notifier.NotifyConflict conflict %d in status %s has nothing to announce", conflict.ID, conflict.Status)
		return 0, nil
	}
	if conflict.Booking == nil {
		return 0, fmt.Errorf("conflict %d has no booking", conflict.ID)
	}

	template, ok := notifier.templates[kind]
	if !ok {
		return 0, fmt.Errorf("no template for notification %s", kind)
	}

	recipients := lo.UniqBy(lo.Compact([]*User{conflict.Booking.Student, conflict.Booking.Instructor}), func(user *User) uint { return user.ID })
	errs := make([]error, 0)
	for _, recipient := range recipients {
		created, err := notifier.notify(conflict, kind, template, recipient)
		if err != nil {
			notifier.logger.ErrorF("Notifier.NotifyConflict conflict %d user %d: %v", conflict.ID, recipient.ID, err)
			errs = append(errs, err)
			continue
		}
		if created {
			sent++
		}
	}
	return sent, errors.Join(errs...)
}

func (notifier *Notifier) notify(conflict *WeatherConflict, kind string, template *config.EmailTemplate, recipient *User) (bool, error) {
	id := NotificationId(conflict.ID, kind, recipient.ID)
	exists, err := notifier.notifications.NotificationExists(id)
	if err != nil {
		return false, fmt.Errorf("lookup notification: %w", err)
	}
	if exists {
		return false, nil
	}

	data := notifier.templateData(conflict, kind, recipient)
	var html, text bytes.Buffer
	if err := template.Html.Execute(&html, data); err != nil {
		return false, fmt.Errorf("render html body: %w", err)
	}
	if err := template.Text.Execute(&text, data); err != nil {
		return false, fmt.Errorf("render text body: %w", err)
	}

	if notifier.mailer != nil && recipient.Email != "" {
		message := gomail.NewMessage()
		message.SetHeader("From", notifier.from)
		message.SetHeader("To", recipient.Email)
		message.SetHeader("Subject", template.Subject)
		message.SetBody("text/plain", text.String())
		message.AddAlternative("text/html", html.String())
		if err := notifier.mailer.DialAndSend(message); err != nil {
			return false, fmt.Errorf("send email: %w", err)
		}
	}

	meta := &metadata{ConflictId: conflict.ID, BookingId: conflict.BookingId}
	if kind == NotificationProposalsReady {
		meta.ProposalIds = lo.Map(conflict.Proposals, func(proposal *RescheduleProposal, _ int) uint { return proposal.ID })
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return false, fmt.Errorf("encode metadata: %w", err)
	}

	created, err := notifier.notifications.InsertNotification(&Notification{
		ID:       id,
		UserId:   recipient.ID,
		Type:     kind,
		Title:    template.Subject,
		Message:  text.String(),
		Metadata: encoded,
	})
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	return created, nil
}

func (notifier *Notifier) format(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(notifier.location).Format(timeLayout)
}

func (notifier *Notifier) templateData(conflict *WeatherConflict, kind string, recipient *User) *templateData {
	booking := conflict.Booking
	originalStart := conflict.OriginalStart
	if originalStart.IsZero() {
		originalStart = booking.ScheduledStart
	}
	data := &templateData{
		RecipientName: recipient.Name,
		OriginalStart: notifier.format(originalStart),
		Departure:     booking.DepartureAirport,
		Violations:    conflict.Violations,
		Proposals: lo.Map(conflict.Proposals, func(proposal *RescheduleProposal, _ int) *proposalView {
			return &proposalView{
				Id:        proposal.ID,
				Rank:      proposal.Rank,
				Start:     notifier.format(proposal.ProposedStart),
				End:       notifier.format(proposal.ProposedEnd),
				Score:     proposal.Score,
				Rationale: proposal.Rationale,
			}
		}),
	}
	if kind == NotificationRescheduleConfirmed {
		data.NewStart = notifier.format(booking.ScheduledStart)
		data.NewEnd = notifier.format(booking.ScheduledEnd)
	}
	return data
}
