package linear

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/linear-relay/internal/apperr"
)

const samplePayload = `{
  "action": "create",
  "type": "ProjectUpdate",
  "actor": {"id": "u1", "name": "Ada", "url": "https://linear.app/acme/profiles/ada", "avatarUrl": "https://avatars.linear.app/ada.png"},
  "createdAt": "2025-03-04T17:30:00.000Z",
  "webhookTimestamp": 1741109400000,
  "webhookId": "wh-1",
  "data": {
    "id": "pu1",
    "body": "Shipped the beta.",
    "health": "atRisk",
    "project": {"id": "p1", "name": "Apollo", "url": "https://linear.app/acme/project/apollo"}
  },
  "url": "https://linear.app/acme/project/apollo/updates#pu1"
}`

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(samplePayload))
	require.NoError(t, err)

	assert.Equal(t, "Ada", ev.Actor.Name)
	assert.Equal(t, "p1", ev.Data.Project.ID)
	assert.Equal(t, HealthAtRisk, ev.Data.Health)
	assert.Equal(t, int64(1741109400000), ev.WebhookTimestamp)
	assert.True(t, ev.CreatedAt.Equal(time.Date(2025, 3, 4, 17, 30, 0, 0, time.UTC)))
	assert.Equal(t, time.UnixMilli(1741109400000), ev.SentAt())
	assert.NoError(t, ev.Validate())
}

func TestDecodeEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"actor":`},
		{"wrong timestamp type", `{"webhookTimestamp":"yesterday"}`},
		{"bad createdAt", `{"createdAt":"not-a-time"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tt.body))
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(ev *WebhookEvent)
		wantMsg string
	}{
		{
			name:    "missing project id",
			mutate:  func(ev *WebhookEvent) { ev.Data.Project.ID = "" },
			wantMsg: "data.project.id is required",
		},
		{
			name:    "bad project url",
			mutate:  func(ev *WebhookEvent) { ev.Data.Project.URL = "apollo" },
			wantMsg: "data.project.url must be a URL",
		},
		{
			name:    "missing actor name",
			mutate:  func(ev *WebhookEvent) { ev.Actor.Name = "" },
			wantMsg: "actor.name is required",
		},
		{
			name:    "missing createdAt",
			mutate:  func(ev *WebhookEvent) { ev.CreatedAt = time.Time{} },
			wantMsg: "createdAt is required",
		},
		{
			name:    "missing update url",
			mutate:  func(ev *WebhookEvent) { ev.URL = "" },
			wantMsg: "url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(samplePayload))
			require.NoError(t, err)
			tt.mutate(ev)

			err = ev.Validate()
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestAuthor(t *testing.T) {
	ev, err := DecodeEvent([]byte(samplePayload))
	require.NoError(t, err)
	assert.Equal(t, "Ada", ev.Author().Name)

	ev.Data.User = &User{Name: "Grace", URL: "https://linear.app/acme/profiles/grace"}
	assert.Equal(t, "Grace", ev.Author().Name)
	assert.NoError(t, ev.Validate())

	ev.Data.User = &User{}
	assert.Equal(t, "Ada", ev.Author().Name)
}

func TestUpdateURL(t *testing.T) {
	ev := &WebhookEvent{Data: ProjectUpdate{URL: "https://linear.app/acme/u/1"}}
	assert.Equal(t, "https://linear.app/acme/u/1", ev.UpdateURL())

	ev.URL = "https://linear.app/acme/u/2"
	assert.Equal(t, "https://linear.app/acme/u/2", ev.UpdateURL())
}
