// internal/workers/application/update-application-status/handler.go
package updateapplicationstatus

import (
	"context"
	"errors"
	"time"

	apperrors "provider-enrollment/internal/common/errors"
	"provider-enrollment/internal/common/logger"
	"provider-enrollment/internal/common/metrics"
	"provider-enrollment/internal/common/observability"
	"provider-enrollment/internal/models"
	"provider-enrollment/internal/repository"
	"provider-enrollment/internal/services/retryqueue"
	"provider-enrollment/internal/services/warehouse"
	sendnotification "provider-enrollment/internal/workers/application/send-notification"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	TaskType = "update-application-status"
)

type ApplicationStore interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
	UpdateStatus(ctx context.Context, app *models.Application) (*models.Application, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// IDSource yields new provider identifiers.
type IDSource interface {
	Next(ctx context.Context) (string, error)
}

// Deliverer sends an event to the data warehouse.
type Deliverer interface {
	Send(ctx context.Context, event interface{}, endpoint string) *warehouse.Result
}

// Notifier tells the applicant about a status change.
type Notifier interface {
	Notify(ctx context.Context, user *models.User, app *models.Application) (*sendnotification.Output, error)
}

type Handler struct {
	config   *Config
	apps     ApplicationStore
	users    UserStore
	ids      IDSource
	delivery Deliverer
	queue    retryqueue.Queue
	notifier Notifier
	obs      *observability.Observability
	logger   logger.Logger
	now      func() time.Time
}

// Dependencies groups the collaborators of Handler. Notifier and
// Observability are optional.
type Dependencies struct {
	Applications  ApplicationStore
	Users         UserStore
	IDs           IDSource
	Delivery      Deliverer
	Queue         retryqueue.Queue
	Notifier      Notifier
	Observability *observability.Observability
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	if config.Endpoint == "" {
		config.Endpoint = warehouse.DefaultEndpoint
	}
	if config.DeliveryTimeout <= 0 {
		config.DeliveryTimeout = 50 * time.Second
	}
	if config.NotifyTimeout <= 0 {
		config.NotifyTimeout = 10 * time.Second
	}
	if config.QueueTimeout <= 0 {
		config.QueueTimeout = 5 * time.Second
	}
	return &Handler{
		config:   config,
		apps:     deps.Applications,
		users:    deps.Users,
		ids:      deps.IDs,
		delivery: deps.Delivery,
		queue:    deps.Queue,
		notifier: deps.Notifier,
		obs:      deps.Observability,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:      time.Now,
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*models.Application, error) {
	status, ok := models.ParseStatus(input.Status)
	if !ok {
		return nil, apperrors.NewInvalidStatusError(input.Status, models.StatusNames())
	}

	app, err := h.apps.GetByID(ctx, input.ApplicationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewApplicationNotFoundError(input.ApplicationID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("get_application", err)
	}

	previous := app.Status
	app.Status = status
	// blank notes keep what the reviewer wrote before
	if input.Notes != nil && *input.Notes != "" {
		app.Notes = input.Notes
	}
	app.StatusUpdateDate = latest(h.now().UTC(), app.StatusUpdateDate, app.SubmittedDate)

	if status == models.StatusApproved && !app.HasProviderID() {
		if err := h.assignProviderID(ctx, app); err != nil {
			return nil, err
		}
	}

	saved, err := h.apps.UpdateStatus(ctx, app)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewApplicationNotFoundError(input.ApplicationID)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError("update_application_status", err)
	}

	metrics.ApplicationStatusUpdates.WithLabelValues(string(saved.Status)).Inc()
	h.logger.Info("application status updated", map[string]interface{}{
		"applicationId": saved.ID,
		"from":          previous,
		"to":            saved.Status,
	})

	h.afterCommit(ctx, saved)
	return saved, nil
}

func (h *Handler) assignProviderID(ctx context.Context, app *models.Application) error {
	if id, ok := app.FormDataProviderID(); ok {
		app.MedicaidProviderID = &id
		metrics.ProviderIDsAssigned.WithLabelValues(ProviderIDFromForm).Inc()
		return nil
	}

	id, err := h.ids.Next(ctx)
	if err != nil {
		return apperrors.NewDatabaseError("generate_provider_id", err)
	}
	app.MedicaidProviderID = &id
	metrics.ProviderIDsAssigned.WithLabelValues(ProviderIDFromGenerator).Inc()
	return nil
}

// afterCommit runs side effects of a persisted change. Nothing here can fail
// the request; it runs detached from the caller's cancellation.
func (h *Handler) afterCommit(ctx context.Context, app *models.Application) {
	approved := app.Status == models.StatusApproved
	if !approved && h.notifier == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	dctx, cancel := context.WithTimeout(detached, h.config.DeliveryTimeout)
	defer cancel()

	user, err := h.users.GetByID(dctx, app.UserID)
	if err != nil {
		h.logger.Error("failed to load application owner", map[string]interface{}{
			"applicationId": app.ID,
			"userId":        app.UserID,
			"error":         err,
		})
		if approved {
			h.obs.RecordDelivery(dctx, DeliverySkipped)
		}
		return
	}

	if approved {
		h.deliver(dctx, app, user)
	}

	if h.notifier != nil {
		h.notify(detached, user, app)
	}
}

// notify gets its own budget so a slow delivery cannot starve it.
func (h *Handler) notify(ctx context.Context, user *models.User, app *models.Application) {
	ctx, cancel := context.WithTimeout(ctx, h.config.NotifyTimeout)
	defer cancel()

	if _, err := h.notifier.Notify(ctx, user, app); err != nil {
		h.logger.Warn("status notification failed", map[string]interface{}{
			"applicationId": app.ID,
			"error":         err,
		})
	}
}

func (h *Handler) deliver(ctx context.Context, app *models.Application, user *models.User) {
	event := models.NewProviderEnrollmentEvent(app, user)

	result := h.delivery.Send(ctx, event, h.config.Endpoint)
	if result.Success {
		h.logger.Info("provider data sent to data warehouse", map[string]interface{}{
			"applicationId": app.ID,
			"attempts":      result.Attempts,
		})
		h.obs.RecordDelivery(ctx, DeliveryDelivered)
		return
	}

	h.logger.Warn("data warehouse delivery failed, queueing for retry", map[string]interface{}{
		"applicationId": app.ID,
		"attempts":      result.Attempts,
		"error":         result.Error,
		"details":       result.Details,
	})

	// the delivery budget may already be spent
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.QueueTimeout)
	defer cancel()

	if err := h.queue.Enqueue(qctx, h.config.Endpoint, event); err != nil {
		h.logger.Error("failed to queue warehouse event", map[string]interface{}{
			"applicationId": app.ID,
			"error":         apperrors.NewQueueEnqueueError(h.config.Endpoint, err),
		})
		h.obs.RecordDelivery(ctx, DeliveryLost)
		return
	}

	metrics.WarehouseEventsQueued.Inc()
	h.obs.RecordDelivery(ctx, DeliveryQueued)
}

func latest(times ...time.Time) time.Time {
	var out time.Time
	for _, t := range times {
		if t.After(out) {
			out = t
		}
	}
	return out
}

// UpdateStatus applies a status change to an application and returns the
// persisted record.
func (h *Handler) UpdateStatus(ctx context.Context, input *Input) (*models.Application, error) {
	start := time.Now()
	ctx, span := h.obs.StartSpan(ctx, "workflow.update_status",
		attribute.String("application.id", input.ApplicationID),
		attribute.String("application.status", input.Status),
	)
	defer span.End()

	app, err := h.execute(ctx, input)

	label := "invalid"
	if status, ok := models.ParseStatus(input.Status); ok {
		label = string(status)
	}
	outcome := "success"
	if err != nil {
		code := string(apperrors.AsStandardError(err).Code)
		outcome = code
		metrics.ApplicationStatusUpdateFailures.WithLabelValues(code).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
	}
	h.obs.RecordStatusUpdate(ctx, label, outcome, time.Since(start))

	return app, err
}
