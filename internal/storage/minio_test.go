package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityakmrtiwari/CliNote/internal/config"
)

func TestPublicObjectURL(t *testing.T) {
	got := PublicObjectURL("https://cdn.example.com/", "clinote", "audio/u1/visit one.webm")
	assert.Equal(t, "https://cdn.example.com/clinote/audio/u1/visit%20one.webm", got)
}

func TestNewMinIOStorage_RequiresEndpoint(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), config.MinIOConfig{})
	require.Error(t, err)
}
