package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnexpected},
		{"plain error", errors.New("boom"), KindUnexpected},
		{"configuration", Configuration("linear.fetch", "missing api key"), KindConfiguration},
		{"wrapped upstream", fmt.Errorf("relay: %w", Upstream("linear.fetch", "bad status", nil)), KindUpstream},
		{"delivery", Delivery("slack.send", "post failed", errors.New("503")), KindDelivery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("linear.fetch", "request failed", cause)

	assert.Equal(t, "linear.fetch: request failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "linear.fetch", OpOf(fmt.Errorf("wrap: %w", err)))
}

func TestErrorMessageDefaults(t *testing.T) {
	err := &Error{Kind: KindStale}
	assert.Equal(t, "stale error", err.Error())
	assert.Equal(t, "kind(42)", Kind(42).String())
}
