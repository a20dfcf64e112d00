// internal/workers/application/create-application-record/handler.go
package createapplicationrecord

import (
	"context"
	"strings"
	"time"

	apperrors "provider-enrollment/internal/common/errors"
	"provider-enrollment/internal/common/logger"
	"provider-enrollment/internal/models"

	"github.com/google/uuid"
)

const (
	TaskType = "create-application-record"
)

// ApplicationStore persists new applications.
type ApplicationStore interface {
	Create(ctx context.Context, app *models.Application) error
}

type Handler struct {
	config *Config
	store  ApplicationStore
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, store ApplicationStore, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

func (h *Handler) execute(ctx context.Context, userID string, input *Input) (*models.Application, error) {
	if fields := validate(input); len(fields) > 0 {
		return nil, apperrors.NewValidationError(fields)
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	now := h.now().UTC()
	notes := h.config.InitialNotes
	app := &models.Application{
		ID:               uuid.New().String(),
		UserID:           userID,
		ApplicationType:  strings.TrimSpace(input.ApplicationType),
		Status:           models.StatusPending,
		SubmittedDate:    now,
		StatusUpdateDate: now,
		Notes:            &notes,
		FormData:         input.FormData,
	}

	if err := h.store.Create(ctx, app); err != nil {
		return nil, apperrors.NewDatabaseError("create_application", err)
	}

	h.logger.Info("application record created", map[string]interface{}{
		"applicationId":   app.ID,
		"userId":          userID,
		"applicationType": app.ApplicationType,
	})
	return app, nil
}

func validate(input *Input) []apperrors.FieldError {
	var fields []apperrors.FieldError
	if input == nil || strings.TrimSpace(input.ApplicationType) == "" {
		fields = append(fields, apperrors.FieldError{
			Field:   "applicationType",
			Message: "Application type is required",
			Code:    "REQUIRED",
		})
	}
	if input == nil || input.FormData == nil {
		fields = append(fields, apperrors.FieldError{
			Field:   "formData",
			Message: "Form data is required",
			Code:    "REQUIRED",
		})
	}
	return fields
}

// Execute creates a Pending application owned by userID.
func (h *Handler) Execute(ctx context.Context, userID string, input *Input) (*models.Application, error) {
	return h.execute(ctx, userID, input)
}
