// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	commonaws "provider-enrollment/internal/common/aws"
	apperrors "provider-enrollment/internal/common/errors"
	"provider-enrollment/internal/common/logger"
	"provider-enrollment/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

// SESService is the part of the SES API used here.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Handler struct {
	config    *Config
	logger    logger.Logger
	sesClient SESService
}

// NewHandler builds an SES-backed notifier. When email is disabled no AWS
// configuration is loaded.
func NewHandler(ctx context.Context, config *Config, log logger.Logger) (*Handler, error) {
	var client SESService
	if config.EmailEnabled {
		sesClient, err := commonaws.NewSESClient(ctx, config.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		client = sesClient
	}
	return NewHandlerWithClient(config, client, log), nil
}

func NewHandlerWithClient(config *Config, client SESService, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: client,
	}
}

// Notify emails user about application's current status.
func (h *Handler) Notify(ctx context.Context, user *models.User, app *models.Application) (*Output, error) {
	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	if !h.config.EmailEnabled || h.sesClient == nil {
		return output, nil
	}
	if user == nil || user.Email == "" {
		h.logger.Warn("recipient has no email", map[string]interface{}{
			"applicationId": app.ID,
		})
		return output, nil
	}

	subject, body := statusMessage(user, app)

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	if err := h.sendEmail(ctx, user.Email, subject, body); err != nil {
		return nil, apperrors.NewNotificationSendFailedError("email", err)
	}

	h.logger.Info("status notification sent", map[string]interface{}{
		"applicationId":  app.ID,
		"status":         app.Status,
		"notificationId": output.NotificationID,
	})
	output.Status = StatusSent
	return output, nil
}

func statusMessage(user *models.User, app *models.Application) (string, string) {
	data := map[string]interface{}{
		"firstName":       user.FirstName,
		"applicationId":   app.ID,
		"applicationType": app.ApplicationType,
		"status":          string(app.Status),
	}

	body := "Hello {{firstName}}, your {{applicationType}} enrollment application {{applicationId}} is now {{status}}."
	if app.Status == models.StatusApproved && app.MedicaidProviderID != nil {
		data["providerId"] = *app.MedicaidProviderID
		body += " Your Medicaid provider ID is {{providerId}}."
	}
	body = renderTemplate(body, data)

	// notes are reviewer text, never a template
	if app.Notes != nil && *app.Notes != "" {
		body += "\n\nReviewer notes: " + *app.Notes
	}

	subject := renderTemplate("Your enrollment application status is now {{status}}", data)
	return subject, body
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

// renderTemplate substitutes {{key}} placeholders in a single pass, so values
// are never rescanned. Placeholders with no value are dropped.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		value := ""
		switch v := data[k].(type) {
		case string:
			value = v
		case nil:
		default:
			value = fmt.Sprintf("%v", v)
		}
		pairs = append(pairs, "{{"+k+"}}", value)
	}

	var b strings.Builder
	rest := tmpl
	replacer := strings.NewReplacer(pairs...)
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			break
		}
		placeholder := rest[start : start+end+2]
		b.WriteString(rest[:start])
		if replaced := replacer.Replace(placeholder); replaced != placeholder {
			b.WriteString(replaced)
		}
		rest = rest[start+end+2:]
	}
	b.WriteString(rest)
	return b.String()
}
