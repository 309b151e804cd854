// Package renderer turns a domain event payload into frozen, channel-specific
// message content. Rendering is pure: no I/O, no clock, no side effects, so
// the same payload always yields the same bytes.
package renderer

import (
	"encoding/json"
	"strings"
	texttemplate "text/template"

	"github.com/SeopE9611/sub010-backend/internal/domain/notification"
)

// payloadFields is the superset of fields the event templates draw from.
// Each event declares which of them are required; unknown JSON fields are
// ignored so producers can snapshot more context than the templates need.
type payloadFields struct {
	OrderID       string `json:"orderId"`
	ApplicationID string `json:"applicationId"`
	RentalID      string `json:"rentalId"`
	CustomerName  string `json:"customerName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	TotalAmount   int64  `json:"totalAmount"`
	ItemSummary   string `json:"itemSummary"`
	StatusLabel   string `json:"statusLabel"`
	RacketName    string `json:"racketName"`
	StringName    string `json:"stringName"`
	DueDate       string `json:"dueDate"`
}

// requiredFields lists the payload fields each event must provide regardless
// of channel. Channel-specific recipients (email address, phone) are checked
// separately per requested channel.
var requiredFields = map[notification.EventType][]string{
	notification.EventOrderPaid:              {"orderId", "customerName"},
	notification.EventOrderCanceled:          {"orderId", "customerName"},
	notification.EventStringingStatusUpdated: {"applicationId", "customerName", "statusLabel"},
	notification.EventRentalReturned:         {"rentalId", "customerName", "racketName"},
	notification.EventRentalOverdue:          {"rentalId", "customerName", "racketName", "dueDate"},
}

func (p payloadFields) field(name string) string {
	switch name {
	case "orderId":
		return p.OrderID
	case "applicationId":
		return p.ApplicationID
	case "rentalId":
		return p.RentalID
	case "customerName":
		return p.CustomerName
	case "statusLabel":
		return p.StatusLabel
	case "racketName":
		return p.RacketName
	case "dueDate":
		return p.DueDate
	default:
		return ""
	}
}

// Renderer renders event payloads through the compiled template table.
type Renderer struct{}

func New() *Renderer {
	return &Renderer{}
}

// Render produces content for every requested channel or fails as a whole.
// The result is frozen into the outbox record at enqueue time; dispatch and
// retry never re-render.
func (r *Renderer) Render(eventType notification.EventType, payload json.RawMessage, channels []notification.Channel) (map[notification.Channel]notification.Content, error) {
	set, ok := templates[eventType]
	if !ok {
		return nil, &notification.RenderError{Reason: notification.ReasonUnsupportedEvent, Event: eventType}
	}

	var fields payloadFields
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, &notification.RenderError{Reason: notification.ReasonMissingField, Event: eventType, Field: "payload"}
	}

	for _, name := range requiredFields[eventType] {
		if strings.TrimSpace(fields.field(name)) == "" {
			return nil, &notification.RenderError{Reason: notification.ReasonMissingField, Event: eventType, Field: name}
		}
	}

	out := make(map[notification.Channel]notification.Content, len(channels))
	for _, ch := range channels {
		content, err := renderChannel(set, eventType, ch, fields)
		if err != nil {
			return nil, err
		}
		out[ch] = content
	}
	return out, nil
}

func renderChannel(set eventTemplates, eventType notification.EventType, ch notification.Channel, fields payloadFields) (notification.Content, error) {
	switch ch {
	case notification.ChannelEmail:
		if strings.TrimSpace(fields.Email) == "" {
			return notification.Content{}, &notification.RenderError{Reason: notification.ReasonMissingField, Event: eventType, Field: "email"}
		}
		subject, err := execText(set.subject, fields)
		if err != nil {
			return notification.Content{}, err
		}
		var body strings.Builder
		if err := set.email.Execute(&body, fields); err != nil {
			return notification.Content{}, &notification.RenderError{Reason: notification.ReasonMissingField, Event: eventType, Field: "payload"}
		}
		return notification.Content{To: fields.Email, Subject: subject, HTML: body.String()}, nil

	case notification.ChannelSMS:
		phone := NormalizePhone(fields.Phone)
		if phone == "" {
			return notification.Content{}, &notification.RenderError{Reason: notification.ReasonMissingField, Event: eventType, Field: "phone"}
		}
		text, err := execText(set.sms, fields)
		if err != nil {
			return notification.Content{}, err
		}
		return notification.Content{To: phone, Text: text}, nil

	case notification.ChannelChat:
		text, err := execText(set.chat, fields)
		if err != nil {
			return notification.Content{}, err
		}
		return notification.Content{Text: text}, nil

	default:
		return notification.Content{}, &notification.RenderError{Reason: notification.ReasonUnsupportedChannel, Event: eventType, Channel: ch}
	}
}

func execText(tmpl *texttemplate.Template, fields payloadFields) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, fields); err != nil {
		return "", err
	}
	return b.String(), nil
}
