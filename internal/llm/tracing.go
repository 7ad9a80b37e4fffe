package llm

import (
	"context"
	"time"

	"taskmind/internal/logging"
)

// TracingClient decorates a Client with api-category logging: prompt and
// response sizes, latency, and the classified kind of any failure. It adds
// no behavior and can wrap any provider.
type TracingClient struct {
	inner Client
	label string
}

// NewTracingClient wraps client. The label distinguishes callers in logs.
func NewTracingClient(client Client, label string) *TracingClient {
	return &TracingClient{inner: client, label: label}
}

// Complete sends a prompt and returns the completion.
func (t *TracingClient) Complete(ctx context.Context, prompt string) (string, error) {
	return t.trace(ctx, "", prompt, func(ctx context.Context) (string, error) {
		return t.inner.Complete(ctx, prompt)
	})
}

// CompleteWithSystem sends a prompt with a system message.
func (t *TracingClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return t.trace(ctx, systemPrompt, userPrompt, func(ctx context.Context) (string, error) {
		return t.inner.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	})
}

func (t *TracingClient) trace(ctx context.Context, system, user string, call func(ctx context.Context) (string, error)) (string, error) {
	log := logging.Get(logging.CategoryAPI)
	start := time.Now()

	resp, err := call(ctx)
	elapsed := time.Since(start)

	if err != nil {
		kind := ClassifyError(err).Kind
		log.Warnf("%s: call failed after %s (system=%dB user=%dB): %s", t.label, elapsed, len(system), len(user), kind)
		return "", err
	}

	log.Debugf("%s: call ok in %s (system=%dB user=%dB resp=%dB)", t.label, elapsed, len(system), len(user), len(resp))
	return resp, nil
}
