// internal/workers/application/send-notification/handler_test.go
package sendnotification

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "provider-enrollment/internal/common/errors"
	"provider-enrollment/internal/common/logger"
	"provider-enrollment/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         int
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls++
	return m.SendEmailFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		FromEmail:    "enrollment@medicaid.example.gov",
		AWSRegion:    "us-east-1",
		Timeout:      time.Second,
	}
}

func createTestUser() *models.User {
	return &models.User{ID: "user-1", FirstName: "Ada", Email: "ada@example.org"}
}

func createTestApplication(status models.ApplicationStatus) *models.Application {
	app := &models.Application{ID: "app-1", ApplicationType: "Individual", Status: status}
	if status == models.StatusApproved {
		id := "12345678901"
		app.MedicaidProviderID = &id
	}
	return app
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Notify_Sent(t *testing.T) {
	var got *ses.SendEmailInput
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			got = params
			return &ses.SendEmailOutput{}, nil
		},
	}
	h := NewHandlerWithClient(createTestConfig(), mockSES, logger.NewTestLogger(t))

	output, err := h.Notify(context.Background(), createTestUser(), createTestApplication(models.StatusApproved))
	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.NotEmpty(t, output.NotificationID)

	require.NotNil(t, got)
	assert.Equal(t, []string{"ada@example.org"}, got.Destination.ToAddresses)
	assert.Equal(t, "enrollment@medicaid.example.gov", *got.Source)
	assert.Equal(t, "Your enrollment application status is now Approved", *got.Message.Subject.Data)
	assert.Contains(t, *got.Message.Body.Text.Data, "12345678901")
}

func TestHandler_Notify_RejectedOmitsProviderID(t *testing.T) {
	var body string
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			body = *params.Message.Body.Text.Data
			return &ses.SendEmailOutput{}, nil
		},
	}
	h := NewHandlerWithClient(createTestConfig(), mockSES, logger.NewNoOpLogger())

	app := createTestApplication(models.StatusRejected)
	notes := "Missing license"
	app.Notes = &notes

	_, err := h.Notify(context.Background(), createTestUser(), app)
	require.NoError(t, err)
	assert.Contains(t, body, "is now Rejected")
	assert.Contains(t, body, "Missing license")
	assert.NotContains(t, body, "provider ID")
	assert.NotContains(t, body, "{{")
}

func TestHandler_Notify_Disabled(t *testing.T) {
	tests := []struct {
		name   string
		config func() *Config
		user   *models.User
	}{
		{
			name: "email disabled",
			config: func() *Config {
				c := createTestConfig()
				c.EmailEnabled = false
				return c
			},
			user: createTestUser(),
		},
		{
			name:   "no recipient email",
			config: createTestConfig,
			user:   &models.User{ID: "user-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSES := &MockSESService{
				SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
					return &ses.SendEmailOutput{}, nil
				},
			}
			h := NewHandlerWithClient(tt.config(), mockSES, logger.NewNoOpLogger())

			output, err := h.Notify(context.Background(), tt.user, createTestApplication(models.StatusInReview))
			require.NoError(t, err)
			assert.Equal(t, StatusDisabled, output.Status)
			assert.Zero(t, mockSES.calls)
		})
	}
}

func TestHandler_Notify_SESError(t *testing.T) {
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("MessageRejected: Email address is not verified")
		},
	}
	h := NewHandlerWithClient(createTestConfig(), mockSES, logger.NewNoOpLogger())

	_, err := h.Notify(context.Background(), createTestUser(), createTestApplication(models.StatusApproved))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotificationSendFailed))
}

func TestNewHandler_DisabledSkipsAWS(t *testing.T) {
	c := createTestConfig()
	c.EmailEnabled = false

	h, err := NewHandler(context.Background(), c, logger.NewNoOpLogger())
	require.NoError(t, err)

	output, err := h.Notify(context.Background(), createTestUser(), createTestApplication(models.StatusPending))
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
}

func TestRenderTemplate(t *testing.T) {
	out := renderTemplate("Hi {{name}}, {{missing}}done", map[string]interface{}{"name": "Ada"})
	assert.Equal(t, "Hi Ada, done", out)
}

func TestRenderTemplate_ValuesAreNotRescanned(t *testing.T) {
	data := map[string]interface{}{"name": "{{other}}", "other": "Bob"}
	for i := 0; i < 50; i++ {
		assert.Equal(t, "Hi {{other}} and Bob", renderTemplate("Hi {{name}} and {{other}}", data))
	}
}

func TestStatusMessage_NotesKeptVerbatim(t *testing.T) {
	app := createTestApplication(models.StatusRejected)
	notes := "use {{firstName}} form {{x}} ok"
	app.Notes = &notes

	want := "Hello Ada, your Individual enrollment application app-1 is now Rejected." +
		"\n\nReviewer notes: use {{firstName}} form {{x}} ok"
	for i := 0; i < 200; i++ {
		_, body := statusMessage(createTestUser(), app)
		require.Equal(t, want, body)
	}
}
