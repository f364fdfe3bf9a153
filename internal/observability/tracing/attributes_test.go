package tracing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsSensitiveKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/roi"),
		attribute.String("magic_token", "abc"),
		attribute.String("user.email", "a@example.com"),
		attribute.String("email_hash", "deadbeef"),
	)

	keys := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		keys = append(keys, string(attr.Key))
	}
	assert.ElementsMatch(t, []string{"http.route", "email_hash"}, keys)
}

func TestSafeErrorHidesMessage(t *testing.T) {
	err := SafeError(errors.New("token=secret"))
	assert.NotContains(t, err.Error(), "secret")
	assert.Nil(t, SafeError(nil))
}
