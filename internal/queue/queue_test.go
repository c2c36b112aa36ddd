package queue

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/iago/briefcase/internal/domain"
	"github.com/redis/go-redis/v9"
)

func TestLocalQueueDeliversMessages(t *testing.T) {
	q := NewLocalQueue(4, 3, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := q.Enqueue(ctx, domain.QueueMessage{JobID: "job-1", URL: "https://acme.com/team"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	received := make(chan domain.QueueMessage, 1)
	go func() {
		_ = q.Consume(ctx, func(_ context.Context, message domain.QueueMessage) error {
			received <- message
			return nil
		})
	}()

	select {
	case message := <-received:
		if message.JobID != "job-1" || message.URL != "https://acme.com/team" {
			t.Fatalf("unexpected message: %+v", message)
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for message")
	}
}

func TestLocalQueueRetriesThenDeadLetters(t *testing.T) {
	q := NewLocalQueue(4, 2, nil)
	q.retryDelay = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	attempts := make(chan int, 4)
	go func() {
		_ = q.Consume(ctx, func(_ context.Context, message domain.QueueMessage) error {
			attempts <- message.Attempt
			return errors.New("boom")
		})
	}()
	if err := q.Enqueue(ctx, domain.QueueMessage{JobID: "job-1"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	for want := 0; want < 2; want++ {
		select {
		case got := <-attempts:
			if got != want {
				t.Fatalf("expected attempt %d, got %d", want, got)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for attempt %d", want)
		}
	}

	deadline := time.Now().Add(time.Second)
	for q.DLQSize() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("expected message in DLQ, size=%d", q.DLQSize())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamMessageRoundTrip(t *testing.T) {
	requestedAt := time.Date(2026, 3, 1, 9, 0, 0, 123, time.UTC)
	original := domain.QueueMessage{JobID: "job-1", URL: "https://acme.com/team", Attempt: 2, RequestedAt: requestedAt}

	values := messageValues(original)
	// redis hands every field back as a string
	asStrings := make(map[string]any, len(values))
	for key, value := range values {
		switch v := value.(type) {
		case int:
			asStrings[key] = strconv.Itoa(v)
		default:
			asStrings[key] = v
		}
	}

	parsed, err := parseStreamMessage(redis.XMessage{ID: "1-0", Values: asStrings})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.JobID != original.JobID || parsed.URL != original.URL || parsed.Attempt != 2 || !parsed.RequestedAt.Equal(requestedAt) {
		t.Fatalf("unexpected parsed message: %+v", parsed)
	}
}

func TestStreamMessageRejectsMissingFields(t *testing.T) {
	if _, err := parseStreamMessage(redis.XMessage{ID: "1-0", Values: map[string]any{"url": "x"}}); err == nil {
		t.Fatalf("expected error for missing job_id")
	}
	_, err := parseStreamMessage(redis.XMessage{ID: "1-0", Values: map[string]any{
		"job_id": "job-1", "url": "x", "attempt": "nope", "requested_at": time.Now().Format(time.RFC3339Nano),
	}})
	if err == nil {
		t.Fatalf("expected error for invalid attempt")
	}
}
