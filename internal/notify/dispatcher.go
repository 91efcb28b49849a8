package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopops/payment-reaper/internal/models"
	"github.com/shopops/payment-reaper/internal/repository"
	"github.com/shopops/payment-reaper/internal/template"
	"github.com/shopops/payment-reaper/pkg/logger"
)

// defaultCustomerName substitutes for an unresolvable customer name in
// message bodies
const defaultCustomerName = "valued customer"

// TemplateStore fetches active notification templates by name
type TemplateStore interface {
	GetActiveByName(ctx context.Context, name string) (*models.NotificationTemplate, error)
}

// ContactResolver resolves an order's notification target
type ContactResolver interface {
	Email(ctx context.Context, order *models.PendingOrder) *string
	Phone(ctx context.Context, order *models.PendingOrder) *string
	Name(ctx context.Context, order *models.PendingOrder) string
}

// EmailSender sends an email through the outbound gateway
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// SMSSender sends an SMS through the outbound gateway
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Dispatcher resolves templates, substitutes variables and sends reminder
// and deletion notices through email and SMS. Both channels are best-effort:
// a failure on one is logged and never blocks the other or the processing
// cycle.
type Dispatcher struct {
	templates TemplateStore
	contacts  ContactResolver
	email     EmailSender
	sms       SMSSender
	logger    logger.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	templates TemplateStore,
	contacts ContactResolver,
	email EmailSender,
	sms SMSSender,
	logger logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		templates: templates,
		contacts:  contacts,
		email:     email,
		sms:       sms,
		logger:    logger,
	}
}

// DispatchStage sends the reminder notification for the given stage of a
// track. The caller has already persisted the stage advance; delivery is at
// least one attempt per stage, not exactly-once.
func (d *Dispatcher) DispatchStage(ctx context.Context, order *models.PendingOrder, track models.Track, stage int) {
	name, ok := stageTemplateName(track, stage)

	if !ok {
		d.logger.Error("No template mapping for stage", "track", track, "stage", stage, "orderNumber", order.OrderNumber)
		return
	}

	fallback := d.reminderFallback(order, finalStage(track, stage))
	d.dispatch(ctx, order, name, fallback)
}

// DispatchDeleted sends the final notice after an order has been deleted
func (d *Dispatcher) DispatchDeleted(ctx context.Context, order *models.PendingOrder, track models.Track) {
	name, ok := deletedTemplateName(track)

	if !ok {
		d.logger.Error("No deleted-template mapping for track", "track", track, "orderNumber", order.OrderNumber)
		return
	}

	fallback := d.deletedFallback(order)
	d.dispatch(ctx, order, name, fallback)
}

// fallbackMessage is the minimal generic message used when a template is
// missing, inactive or fails to render
type fallbackMessage struct {
	subject string
	body    string
}

func (d *Dispatcher) dispatch(ctx context.Context, order *models.PendingOrder, templateName string, fallback fallbackMessage) {
	vars := d.orderVars(ctx, order)

	d.sendEmailChannel(ctx, order, templateName, vars, fallback)
	d.sendSMSChannel(ctx, order, templateName+smsSuffix, vars, fallback)
}

// orderVars builds the substitution map shared by all templates
func (d *Dispatcher) orderVars(ctx context.Context, order *models.PendingOrder) template.Vars {
	name := d.contacts.Name(ctx, order)

	if name == "" {
		name = defaultCustomerName
	}

	return template.Vars{
		"ORDER_NUMBER":  order.OrderNumber,
		"CUSTOMER_NAME": name,
		"AMOUNT":        fmt.Sprintf("%.2f", order.TotalAmount),
		"CURRENCY":      order.Currency,
	}
}

func (d *Dispatcher) sendEmailChannel(ctx context.Context, order *models.PendingOrder, templateName string, vars template.Vars, fallback fallbackMessage) {
	to := d.contacts.Email(ctx, order)

	if to == nil {
		d.logger.Info("No email address resolvable, skipping email channel", "orderNumber", order.OrderNumber)
		return
	}

	subject, htmlBody, textBody := fallback.subject, fallback.body, fallback.body

	if tmpl, err := d.templates.GetActiveByName(ctx, templateName); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			d.logger.Warn("Template missing or inactive, using generic message", "template", templateName, "orderNumber", order.OrderNumber)
		} else {
			d.logger.Error("Template lookup failed, using generic message", "error", err, "template", templateName, "orderNumber", order.OrderNumber)
		}
	} else if rendered, renderErr := renderEmail(tmpl, vars); renderErr != nil {
		d.logger.Warn("Template failed to render, using generic message",
			"error", renderErr,
			"template", templateName,
			"orderNumber", order.OrderNumber)
	} else {
		subject, htmlBody, textBody = rendered.subject, rendered.html, rendered.text
	}

	if err := d.email.SendEmail(ctx, *to, subject, htmlBody, textBody); err != nil {
		d.logger.Error("Failed to send email notification",
			"error", err,
			"orderNumber", order.OrderNumber,
			"template", templateName)
		return
	}

	d.logger.Info("Email notification sent", "orderNumber", order.OrderNumber, "template", templateName)
}

func (d *Dispatcher) sendSMSChannel(ctx context.Context, order *models.PendingOrder, templateName string, vars template.Vars, fallback fallbackMessage) {
	to := d.contacts.Phone(ctx, order)

	if to == nil {
		d.logger.Debug("No phone number resolvable, skipping SMS channel", "orderNumber", order.OrderNumber)
		return
	}

	message := fmt.Sprintf("Order %s: %s", order.OrderNumber, fallback.body)

	if tmpl, err := d.templates.GetActiveByName(ctx, templateName); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			d.logger.Debug("SMS template missing or inactive, using generic message", "template", templateName, "orderNumber", order.OrderNumber)
		} else {
			d.logger.Error("SMS template lookup failed, using generic message", "error", err, "template", templateName, "orderNumber", order.OrderNumber)
		}
	} else if rendered, renderErr := renderSMS(tmpl, vars); renderErr != nil {
		d.logger.Warn("SMS template failed to render, using generic message",
			"error", renderErr,
			"template", templateName,
			"orderNumber", order.OrderNumber)
	} else {
		message = rendered
	}

	if err := d.sms.SendSMS(ctx, *to, message); err != nil {
		d.logger.Error("Failed to send SMS notification",
			"error", err,
			"orderNumber", order.OrderNumber,
			"template", templateName)
		return
	}

	d.logger.Info("SMS notification sent", "orderNumber", order.OrderNumber, "template", templateName)
}

type renderedEmail struct {
	subject string
	html    string
	text    string
}

func renderEmail(tmpl *models.NotificationTemplate, vars template.Vars) (*renderedEmail, error) {
	subject, err := template.Render(tmpl.Subject, vars)

	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}

	html, err := template.Render(tmpl.BodyHTML, vars)

	if err != nil {
		return nil, fmt.Errorf("html body: %w", err)
	}

	text := ""
	if tmpl.BodyText != nil {
		if text, err = template.Render(*tmpl.BodyText, vars); err != nil {
			return nil, fmt.Errorf("text body: %w", err)
		}
	}

	return &renderedEmail{subject: subject, html: html, text: text}, nil
}

// renderSMS renders the plain-text body of an SMS template. An SMS template
// without a text body is treated as unrenderable.
func renderSMS(tmpl *models.NotificationTemplate, vars template.Vars) (string, error) {
	if tmpl.BodyText == nil || *tmpl.BodyText == "" {
		return "", fmt.Errorf("template %s has no text body", tmpl.Name)
	}

	return template.Render(*tmpl.BodyText, vars)
}

func (d *Dispatcher) reminderFallback(order *models.PendingOrder, final bool) fallbackMessage {
	name := d.fallbackName(order)

	if final {
		return fallbackMessage{
			subject: fmt.Sprintf("Final warning - order %s", order.OrderNumber),
			body: fmt.Sprintf("Dear %s, this is the last chance to complete the payment of %.2f %s for order %s. The order will be deleted if the payment is not completed.",
				name, order.TotalAmount, order.Currency, order.OrderNumber),
		}
	}

	return fallbackMessage{
		subject: fmt.Sprintf("Order %s - payment incomplete", order.OrderNumber),
		body: fmt.Sprintf("Dear %s, the payment of %.2f %s for order %s is still incomplete. Please complete it as soon as possible.",
			name, order.TotalAmount, order.Currency, order.OrderNumber),
	}
}

func (d *Dispatcher) deletedFallback(order *models.PendingOrder) fallbackMessage {
	return fallbackMessage{
		subject: fmt.Sprintf("Order %s has been deleted", order.OrderNumber),
		body: fmt.Sprintf("Dear %s, unfortunately order %s was deleted because the payment was not completed in time. Please contact us to order again.",
			d.fallbackName(order), order.OrderNumber),
	}
}

func (d *Dispatcher) fallbackName(order *models.PendingOrder) string {
	if order.GuestName != nil && *order.GuestName != "" {
		return *order.GuestName
	}
	return defaultCustomerName
}
