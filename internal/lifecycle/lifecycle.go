// Package lifecycle implements the application lifecycle authority: who may
// move a project application between states, and which transitions notify
// the applicant. Notification failures never fail or roll back a transition.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/creostudios/backend/pkg/models"
	"github.com/creostudios/backend/pkg/repository"
)

// Sentinel errors returned by authority operations. Callers classify with
// errors.Is; the API layer maps them to HTTP status codes.
var (
	ErrAuth       = errors.New("unauthorized")
	ErrForbidden  = errors.New("admin access required")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
)

// EventKind identifies the notification triggered by a transition.
type EventKind string

const (
	EventStatusAccepted EventKind = "status.accepted"
	EventStatusRejected EventKind = "status.rejected"
	EventDelivered      EventKind = "delivered"
)

// Event is handed to the notifier when a transition fires a notification.
type Event struct {
	Kind        EventKind
	Application *models.Application
	OldStatus   models.Status
}

// Notifier is a best-effort side channel. Implementations may fail; the
// authority catches and logs every Notify error and never propagates it.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Authority enforces ownership/admin predicates on application reads and
// state transitions.
type Authority struct {
	users    repository.UserRepo
	apps     repository.ApplicationRepo
	notifier Notifier
	logger   *slog.Logger
}

func New(users repository.UserRepo, apps repository.ApplicationRepo, n Notifier, logger *slog.Logger) *Authority {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authority{users: users, apps: apps, notifier: n, logger: logger}
}

// SubmitInput carries a new application request.
type SubmitInput struct {
	ClientName         string
	City               string
	ServiceType        models.ServiceType
	ProjectDescription string
	ReferenceImages    string
	Days               int
}

const maxDescriptionWords = 10000

// Submit creates a pending application owned by the caller. The caller must
// resolve to a verified user.
func (a *Authority) Submit(ctx context.Context, callerEmail string, in SubmitInput) (*models.Application, error) {
	user, err := a.users.GetUserByEmail(ctx, callerEmail)
	if err != nil {
		return nil, fmt.Errorf("resolve caller: %w", err)
	}
	if user == nil || !user.Verified {
		return nil, ErrAuth
	}

	in.ClientName = strings.TrimSpace(in.ClientName)
	in.City = strings.TrimSpace(in.City)
	in.ProjectDescription = strings.TrimSpace(in.ProjectDescription)
	switch {
	case in.ClientName == "" || in.City == "" || in.ProjectDescription == "":
		return nil, fmt.Errorf("%w: all fields are required", ErrValidation)
	case !models.ValidServiceType(in.ServiceType):
		return nil, fmt.Errorf("%w: invalid service type", ErrValidation)
	case in.Days < 3:
		return nil, fmt.Errorf("%w: minimum 3 days required to complete the project", ErrValidation)
	case len(strings.Fields(in.ProjectDescription)) > maxDescriptionWords:
		return nil, fmt.Errorf("%w: project description exceeds %d words", ErrValidation, maxDescriptionWords)
	}

	app := &models.Application{
		ClientName:         in.ClientName,
		City:               in.City,
		ServiceType:        in.ServiceType,
		ProjectDescription: in.ProjectDescription,
		ReferenceImages:    strings.TrimSpace(in.ReferenceImages),
		Days:               in.Days,
		UserEmail:          user.Email,
		Status:             models.StatusPending,
		Created:            now(),
	}
	id, err := a.apps.CreateApplication(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	app.ID = id

	return app, nil
}

// ListOwn returns the caller's applications, newest first. There is no admin
// bypass: admins see only their own submissions here.
func (a *Authority) ListOwn(ctx context.Context, callerEmail string) ([]models.Application, error) {
	user, err := a.users.GetUserByEmail(ctx, callerEmail)
	if err != nil {
		return nil, fmt.Errorf("resolve caller: %w", err)
	}
	if user == nil {
		return nil, ErrAuth
	}

	return a.apps.ListByOwner(ctx, user.Email)
}

// ListAll returns every application, newest first. Admin only.
func (a *Authority) ListAll(ctx context.Context, callerEmail string) ([]models.Application, error) {
	if _, err := a.requireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}

	return a.apps.ListAll(ctx)
}

// SetStatus writes the new status and, when the application newly becomes
// accepted or rejected, attempts a notification. The status write is
// authoritative regardless of the notification outcome.
func (a *Authority) SetStatus(ctx context.Context, callerEmail string, id int64, newStatus models.Status) (*models.Application, error) {
	if _, err := a.requireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}
	if !models.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, newStatus)
	}

	app, err := a.apps.GetApplicationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
	}

	oldStatus := app.Status
	if err := a.apps.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	app.Status = newStatus

	if newStatus != oldStatus {
		switch newStatus {
		case models.StatusAccepted:
			a.notify(ctx, Event{Kind: EventStatusAccepted, Application: app, OldStatus: oldStatus})
		case models.StatusRejected:
			a.notify(ctx, Event{Kind: EventStatusRejected, Application: app, OldStatus: oldStatus})
		}
	}

	return app, nil
}

// Deliver attaches the delivery fields, stamps delivered_at and forces the
// status to completed regardless of the prior status. Admin only.
func (a *Authority) Deliver(ctx context.Context, callerEmail string, id int64, d models.Delivery) (*models.Application, error) {
	if _, err := a.requireAdmin(ctx, callerEmail); err != nil {
		return nil, err
	}

	app, err := a.apps.GetApplicationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, fmt.Errorf("application %d: %w", id, ErrNotFound)
	}

	d.FileURL = strings.TrimSpace(d.FileURL)
	d.APKURL = strings.TrimSpace(d.APKURL)
	d.GithubURL = strings.TrimSpace(d.GithubURL)
	d.DeployedURL = strings.TrimSpace(d.DeployedURL)
	d.Notes = strings.TrimSpace(d.Notes)

	oldStatus := app.Status
	deliveredAt := now()
	if err := a.apps.SetDelivery(ctx, id, &d, deliveredAt); err != nil {
		return nil, fmt.Errorf("set delivery: %w", err)
	}

	app.Status = models.StatusCompleted
	app.DeliveryFileURL = d.FileURL
	app.DeliveryAPKURL = d.APKURL
	app.DeliveryGithubURL = d.GithubURL
	app.DeliveryDeployedURL = d.DeployedURL
	app.DeliveryNotes = d.Notes
	app.DeliveredAt = &deliveredAt

	a.notify(ctx, Event{Kind: EventDelivered, Application: app, OldStatus: oldStatus})

	return app, nil
}

func (a *Authority) requireAdmin(ctx context.Context, email string) (*models.User, error) {
	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("resolve caller: %w", err)
	}
	if user == nil {
		return nil, ErrAuth
	}
	if !user.IsAdmin {
		return nil, ErrForbidden
	}
	return user, nil
}

// notify sends the event through the sink, swallowing any failure. The state
// transition is the source of truth and must not be coupled to email.
func (a *Authority) notify(ctx context.Context, ev Event) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, ev); err != nil {
		a.logger.Error("notification failed",
			slog.String("event", string(ev.Kind)),
			slog.Int64("application_id", ev.Application.ID),
			slog.Any("err", err),
		)
	}
}

func now() int64 {
	return time.Now().UTC().Unix()
}
