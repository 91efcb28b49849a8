package notify

import (
	"context"
	"testing"

	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/internal/repository"
	"github.com/shopops/payment-reaper/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTemplateStore struct {
	templates map[string]*models.NotificationTemplate
	err       error
}

func (f *fakeTemplateStore) GetActiveByName(_ context.Context, name string) (*models.NotificationTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}

	if tmpl, ok := f.templates[name]; ok {
		return tmpl, nil
	}

	return nil, repository.ErrNotFound
}

type fakeContacts struct {
	email *string
	phone *string
	name  string
}

func (f *fakeContacts) Email(context.Context, *models.PendingOrder) *string { return f.email }
func (f *fakeContacts) Phone(context.Context, *models.PendingOrder) *string { return f.phone }
func (f *fakeContacts) Name(context.Context, *models.PendingOrder) string   { return f.name }

type sentEmail struct {
	to       string
	subject  string
	htmlBody string
	textBody string
}

type fakeEmailSender struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmailSender) SendEmail(_ context.Context, to, subject, htmlBody, textBody string) error {
	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, sentEmail{to: to, subject: subject, htmlBody: htmlBody, textBody: textBody})
	return nil
}

type sentSMS struct {
	to      string
	message string
}

type fakeSMSSender struct {
	sent []sentSMS
	err  error
}

func (f *fakeSMSSender) SendSMS(_ context.Context, to, message string) error {
	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, sentSMS{to: to, message: message})
	return nil
}

func strPtr(s string) *string { return &s }

func testOrder() *models.PendingOrder {
	return &models.PendingOrder{
		ID:          1,
		OrderNumber: "ORD-3001",
		TotalAmount: 185.50,
		Currency:    "IQD",
	}
}

func activeTemplate(name, subject, html, text string) *models.NotificationTemplate {
	return &models.NotificationTemplate{
		Name:     name,
		Subject:  subject,
		BodyHTML: html,
		BodyText: &text,
		IsActive: true,
	}
}

func TestDispatcher_DispatchStage_RendersOnBothChannels(t *testing.T) {
	templates := &fakeTemplateStore{templates: map[string]*models.NotificationTemplate{
		"incomplete_payment_first_reminder": activeTemplate(
			"incomplete_payment_first_reminder",
			"Complete your order {{ORDER_NUMBER}}",
			"<p>Dear {{CUSTOMER_NAME}}, pay {{AMOUNT}} {{CURRENCY}}.</p>",
			"Dear {{CUSTOMER_NAME}}, pay {{AMOUNT}} {{CURRENCY}}.",
		),
		"incomplete_payment_first_reminder_sms": activeTemplate(
			"incomplete_payment_first_reminder_sms",
			"",
			"",
			"{{ORDER_NUMBER}}: pay {{AMOUNT}} {{CURRENCY}}",
		),
	}}
	contacts := &fakeContacts{email: strPtr("sara@example.com"), phone: strPtr("+9647701112233"), name: "Sara Ahmadi"}
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}

	d := NewDispatcher(templates, contacts, email, sms, logger.NewLogger("error"))
	d.DispatchStage(context.Background(), testOrder(), models.TrackOnlinePayment, 1)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "sara@example.com", email.sent[0].to)
	assert.Equal(t, "Complete your order ORD-3001", email.sent[0].subject)
	assert.Equal(t, "<p>Dear Sara Ahmadi, pay 185.50 IQD.</p>", email.sent[0].htmlBody)
	assert.Equal(t, "Dear Sara Ahmadi, pay 185.50 IQD.", email.sent[0].textBody)

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "+9647701112233", sms.sent[0].to)
	assert.Equal(t, "ORD-3001: pay 185.50 IQD", sms.sent[0].message)
}

func TestDispatcher_MissingTemplateFallsBackToGenericMessage(t *testing.T) {
	contacts := &fakeContacts{email: strPtr("sara@example.com"), name: "Sara Ahmadi"}
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}

	d := NewDispatcher(&fakeTemplateStore{}, contacts, email, sms, logger.NewLogger("error"))
	d.DispatchStage(context.Background(), testOrder(), models.TrackOnlinePayment, 1)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "Order ORD-3001 - payment incomplete", email.sent[0].subject)
	assert.Contains(t, email.sent[0].textBody, "185.50 IQD")
}

func TestDispatcher_FinalStageFallbackWarnsAboutDeletion(t *testing.T) {
	contacts := &fakeContacts{email: strPtr("sara@example.com")}
	email := &fakeEmailSender{}

	d := NewDispatcher(&fakeTemplateStore{}, contacts, email, &fakeSMSSender{}, logger.NewLogger("error"))
	d.DispatchStage(context.Background(), testOrder(), models.TrackGracePeriod, 3)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "Final warning - order ORD-3001", email.sent[0].subject)
	assert.Contains(t, email.sent[0].textBody, "will be deleted")
}

func TestDispatcher_RenderFailureFallsBackToGenericMessage(t *testing.T) {
	// {{DISCOUNT}} is not in the substitution map, so rendering fails
	templates := &fakeTemplateStore{templates: map[string]*models.NotificationTemplate{
		"incomplete_payment_first_reminder": activeTemplate(
			"incomplete_payment_first_reminder",
			"Order {{ORDER_NUMBER}}",
			"<p>{{DISCOUNT}}</p>",
			"",
		),
	}}
	contacts := &fakeContacts{email: strPtr("sara@example.com")}
	email := &fakeEmailSender{}

	d := NewDispatcher(templates, contacts, email, &fakeSMSSender{}, logger.NewLogger("error"))
	d.DispatchStage(context.Background(), testOrder(), models.TrackOnlinePayment, 1)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "Order ORD-3001 - payment incomplete", email.sent[0].subject)
}

func TestDispatcher_SkipsChannelsWithoutContact(t *testing.T) {
	testCases := map[string]struct {
		contacts       *fakeContacts
		expectedEmails int
		expectedSMS    int
	}{
		"no phone skips only the sms channel": {
			contacts:       &fakeContacts{email: strPtr("sara@example.com")},
			expectedEmails: 1,
			expectedSMS:    0,
		},
		"no email skips only the email channel": {
			contacts:       &fakeContacts{phone: strPtr("+9647701112233")},
			expectedEmails: 0,
			expectedSMS:    1,
		},
		"no contact at all sends nothing": {
			contacts: &fakeContacts{},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			email := &fakeEmailSender{}
			sms := &fakeSMSSender{}

			d := NewDispatcher(&fakeTemplateStore{}, tc.contacts, email, sms, logger.NewLogger("error"))
			d.DispatchStage(context.Background(), testOrder(), models.TrackGracePeriod, 1)

			assert.Len(t, email.sent, tc.expectedEmails)
			assert.Len(t, sms.sent, tc.expectedSMS)
		})
	}
}

func TestDispatcher_EmailFailureDoesNotBlockSMS(t *testing.T) {
	contacts := &fakeContacts{email: strPtr("sara@example.com"), phone: strPtr("+9647701112233")}
	email := &fakeEmailSender{err: assert.AnError}
	sms := &fakeSMSSender{}

	d := NewDispatcher(&fakeTemplateStore{}, contacts, email, sms, logger.NewLogger("error"))
	d.DispatchStage(context.Background(), testOrder(), models.TrackOnlinePayment, 2)

	assert.Empty(t, email.sent)
	assert.Len(t, sms.sent, 1)
}

func TestDispatcher_DispatchDeleted(t *testing.T) {
	contacts := &fakeContacts{email: strPtr("sara@example.com")}
	email := &fakeEmailSender{}

	d := NewDispatcher(&fakeTemplateStore{}, contacts, email, &fakeSMSSender{}, logger.NewLogger("error"))
	d.DispatchDeleted(context.Background(), testOrder(), models.TrackGracePeriod)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "Order ORD-3001 has been deleted", email.sent[0].subject)
}

func TestDispatcher_UnresolvableNameUsesGenericSalutation(t *testing.T) {
	templates := &fakeTemplateStore{templates: map[string]*models.NotificationTemplate{
		"grace_period_first_reminder": activeTemplate(
			"grace_period_first_reminder",
			"Reminder for {{ORDER_NUMBER}}",
			"Dear {{CUSTOMER_NAME}}",
			"Dear {{CUSTOMER_NAME}}",
		),
	}}
	contacts := &fakeContacts{email: strPtr("sara@example.com")}
	email := &fakeEmailSender{}

	d := NewDispatcher(templates, contacts, email, &fakeSMSSender{}, logger.NewLogger("error"))
	d.DispatchStage(context.Background(), testOrder(), models.TrackGracePeriod, 1)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "Dear valued customer", email.sent[0].htmlBody)
}

func TestDispatcher_UnknownStageSendsNothing(t *testing.T) {
	contacts := &fakeContacts{email: strPtr("sara@example.com")}
	email := &fakeEmailSender{}

	d := NewDispatcher(&fakeTemplateStore{}, contacts, email, &fakeSMSSender{}, logger.NewLogger("error"))
	d.DispatchStage(context.Background(), testOrder(), models.TrackOnlinePayment, 9)

	assert.Empty(t, email.sent)
}
