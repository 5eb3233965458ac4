package boardapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/schema"
)

func TestInvitationExpired(t *testing.T) {
	now := time.Now()
	inv := Invitation{ExpiresAt: now.Add(time.Hour)}

	assert.False(t, inv.Expired(now))
	assert.True(t, inv.Expired(now.Add(time.Hour)), "the deadline itself is expired")
	assert.True(t, inv.Expired(now.Add(2*time.Hour)))
}

func TestInviteExpiry(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.AddDate(0, 0, 7), inviteExpiry(now, 7))
	assert.Equal(t, now.AddDate(0, 0, 7), inviteExpiry(now, 0), "non-positive TTL falls back to a week")
	assert.Equal(t, now.AddDate(0, 0, 1), inviteExpiry(now, 1))
}

func TestDefaultProjectFields(t *testing.T) {
	fields := defaultProjectFields()
	require.Len(t, fields, 3)

	title := schema.FieldByKey(fields, "title")
	require.NotNil(t, title)
	assert.True(t, title.Required)
	assert.Equal(t, schema.TypeText, title.Type)

	status := schema.FieldByKey(fields, "status")
	require.NotNil(t, status)
	assert.Len(t, status.Options, 3)

	require.NoError(t, schema.ValidateFields(fields))
}

func TestValidatePayload(t *testing.T) {
	fields := []schema.FieldDefinition{
		schema.NewField("Points", schema.TypeNumber, nil),
	}

	assert.NoError(t, validatePayload(fields, schema.Payload{
		"points": schema.Number(3),
	}))
	assert.Error(t, validatePayload(fields, schema.Payload{
		"points": schema.String("many"),
	}))

	// keys without a field pass through so orphaned data stays writable
	assert.NoError(t, validatePayload(fields, schema.Payload{
		"legacy_column": schema.String("whatever"),
	}))
}
