package requestid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithAndFrom(t *testing.T) {
	ctx := With(context.Background(), "req-123")
	assert.Equal(t, "req-123", From(ctx))
}

func TestFrom_MintsWhenAbsent(t *testing.T) {
	id := From(context.Background())
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)

	// Each call without a carried id mints a fresh one.
	assert.NotEqual(t, id, From(context.Background()))
}
