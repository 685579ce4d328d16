package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/catarr/internal/probe"
)

func TestProbeStreamRequiresURL(t *testing.T) {
	h := NewProbeHandler(probe.New(nil))

	_, err := h.ProbeStream(context.Background(), &ProbeInput{})
	assertStatusError(t, err, 400)
}

func TestProbeStreamByExtension(t *testing.T) {
	h := NewProbeHandler(probe.New(nil))

	out, err := h.ProbeStream(context.Background(), &ProbeInput{URL: "http://stream.example/live/feed.ts"})
	require.NoError(t, err)
	assert.Equal(t, probe.KindRawTS, out.Body.Kind)
}
