package upstream

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	calls   int
	fail    []error
	reply   string
	lastArg string
}

func (c *scriptedClient) CreateAssistant(ctx context.Context, name, systemPrompt string) (string, error) {
	return "", errors.New("unused")
}

func (c *scriptedClient) CreateThread(ctx context.Context, assistantID string) (string, error) {
	return "", errors.New("unused")
}

func (c *scriptedClient) SendMessage(ctx context.Context, threadID, content, model, provider string) (string, error) {
	c.lastArg = content
	if c.calls < len(c.fail) {
		err := c.fail[c.calls]
		c.calls++
		return "", err
	}
	c.calls++
	return c.reply, nil
}

func TestRetryingClient_RetriesOn5xxThenSucceeds(t *testing.T) {
	inner := &scriptedClient{
		fail:  []error{&Error{Op: "send_message", Status: 503, Body: "overloaded"}},
		reply: "ack",
	}
	c := NewRetryingClient(inner, time.Second)

	reply, err := c.SendMessage(context.Background(), "t", "hi", "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "ack", reply)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryingClient_DoesNotRetry4xx(t *testing.T) {
	inner := &scriptedClient{
		fail: []error{&Error{Op: "send_message", Status: 400, Body: "bad request"}},
	}
	c := NewRetryingClient(inner, time.Second)

	_, err := c.SendMessage(context.Background(), "t", "hi", "m", "p")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryingClient_RetriesNetworkErrors(t *testing.T) {
	inner := &scriptedClient{
		fail:  []error{&net.DNSError{Err: "timeout", IsTimeout: true}},
		reply: "ack",
	}
	c := NewRetryingClient(inner, time.Second)

	reply, err := c.SendMessage(context.Background(), "t", "hi", "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "ack", reply)
}

func TestRetryingClient_GivesUpAfterMaxElapsed(t *testing.T) {
	inner := &scriptedClient{
		fail: []error{
			&Error{Op: "send_message", Status: 503, Body: "1"},
			&Error{Op: "send_message", Status: 503, Body: "2"},
		},
	}
	c := NewRetryingClient(inner, time.Nanosecond)

	_, err := c.SendMessage(context.Background(), "t", "hi", "m", "p")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
