// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCorrelationID(t *testing.T) {
	id1 := GenerateCorrelationID()
	id2 := GenerateCorrelationID()

	assert.Len(t, id1, 8)
	assert.NotEqual(t, id1, id2)
}

func TestGenerateRequestID(t *testing.T) {
	id1 := GenerateRequestID()
	id2 := GenerateRequestID()

	assert.Len(t, id1, 36)
	assert.NotEqual(t, id1, id2)
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	assert.Empty(t, CorrelationIDFromContext(context.Background()))

	ctx := ContextWithNewCorrelationID(context.Background())
	id := CorrelationIDFromContext(ctx)
	require.Len(t, id, 8)

	other := ContextWithNewCorrelationID(context.Background())
	assert.NotEqual(t, id, CorrelationIDFromContext(other))
}

func TestRequestIDRoundTrip(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))

	ctx := ContextWithRequestID(context.Background(), "req-456")
	assert.Equal(t, "req-456", RequestIDFromContext(ctx))
}

func TestCtxAttachesIDs(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	ctx := ContextWithNewCorrelationID(context.Background())
	ctx = ContextWithRequestID(ctx, "req-456")

	Ctx(ctx).Info().Msg("turn handled")

	out := buf.String()
	assert.Contains(t, out, `"correlation_id":"`+CorrelationIDFromContext(ctx)+`"`)
	assert.Contains(t, out, `"request_id":"req-456"`)
}

func TestCtxWithBareContext(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Ctx(context.Background()).Info().Msg("no ids")

	out := buf.String()
	assert.Contains(t, out, `"message":"no ids"`)
	assert.NotContains(t, out, "correlation_id")
	assert.NotContains(t, out, "request_id")
}
