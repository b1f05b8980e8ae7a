package linear

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mattjoyce/linear-relay/internal/apperr"
)

// Health is the status a project update reports.
type Health string

const (
	HealthOnTrack  Health = "onTrack"
	HealthAtRisk   Health = "atRisk"
	HealthOffTrack Health = "offTrack"
)

// WebhookEvent is a Linear project-update webhook delivery.
type WebhookEvent struct {
	Action           string        `json:"action,omitempty"`
	Type             string        `json:"type,omitempty"`
	Actor            User          `json:"actor"`
	CreatedAt        time.Time     `json:"createdAt" validate:"required"`
	WebhookTimestamp int64         `json:"webhookTimestamp"`
	WebhookID        string        `json:"webhookId,omitempty"`
	Data             ProjectUpdate `json:"data"`
	URL              string        `json:"url" validate:"required,url"`
}

// User is the actor that triggered the event or authored the update.
type User struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name" validate:"required"`
	URL       string `json:"url,omitempty" validate:"omitempty,url"`
	AvatarURL string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
}

// ProjectUpdate is the data section of a project-update event.
type ProjectUpdate struct {
	ID      string  `json:"id,omitempty"`
	Body    string  `json:"body"`
	Health  Health  `json:"health,omitempty"`
	URL     string  `json:"url,omitempty" validate:"omitempty,url"`
	Project Project `json:"project"`
	User    *User   `json:"user,omitempty"`
}

// Project identifies the project an update belongs to.
type Project struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

// Author returns the update's author, falling back to the event actor.
func (e *WebhookEvent) Author() User {
	if e.Data.User != nil && e.Data.User.Name != "" {
		return *e.Data.User
	}
	return e.Actor
}

// UpdateURL returns the link to the update itself.
func (e *WebhookEvent) UpdateURL() string {
	if e.URL != "" {
		return e.URL
	}
	return e.Data.URL
}

// SentAt returns webhookTimestamp as a time.
func (e *WebhookEvent) SentAt() time.Time {
	return time.UnixMilli(e.WebhookTimestamp)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// DecodeEvent parses a raw webhook body. It only reports JSON errors; call
// Validate to check the content.
func DecodeEvent(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, apperr.Validation("linear.decode", "malformed payload", err)
	}
	return &ev, nil
}

// Validate checks that every field the relay relies on is present and well formed.
func (e *WebhookEvent) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("linear.validate", "invalid payload", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describeFieldError(fe))
	}
	return apperr.Validation("linear.validate", strings.Join(problems, "; "), nil)
}

func describeFieldError(fe validator.FieldError) string {
	// Namespace is "WebhookEvent.data.project.id"; drop the root type.
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a URL", field)
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
