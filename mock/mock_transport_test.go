package mock

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengovern/datacore"
)

func TestScriptedTransport(t *testing.T) {
	m := NewScripted(Response{Status: 404}, Response{Err: ErrConnection})

	_, err := m.Do(context.Background(), &datacore.TransportRequest{URL: "a"})
	var terr *datacore.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, 404, terr.Status)

	_, err = m.Do(context.Background(), &datacore.TransportRequest{URL: "b"})
	assert.ErrorIs(t, err, ErrConnection)

	resp, err := m.Do(context.Background(), &datacore.TransportRequest{URL: "c"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(resp.Data))

	assert.Equal(t, 3, m.Calls())
	last, ok := m.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "c", last.URL)
}

func TestFailAlways(t *testing.T) {
	m := &MockTransport{ShouldFailAlways: true}
	_, err := m.Do(context.Background(), &datacore.TransportRequest{})

	var terr *datacore.TransportError
	require.True(t, errors.As(err, &terr))
	assert.Zero(t, terr.Status)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestRequestsAreCopied(t *testing.T) {
	m := NewScripted()
	headers := map[string]string{"a": "1"}
	_, err := m.Do(context.Background(), &datacore.TransportRequest{Headers: headers})
	require.NoError(t, err)

	headers["a"] = "2"
	assert.Equal(t, "1", m.Requests()[0].Headers["a"])
}

func TestCanceledContext(t *testing.T) {
	m := NewScripted()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Do(ctx, &datacore.TransportRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, m.Calls())

	_, ok := m.LastRequest()
	assert.False(t, ok)
}
