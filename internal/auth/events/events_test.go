package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("write without deadline")
	}
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

type sinkFunc func(context.Context, domain.SecurityEvent) error

func (f sinkFunc) Emit(ctx context.Context, ev domain.SecurityEvent) error { return f(ctx, ev) }

func testEvent() domain.SecurityEvent {
	return domain.SecurityEvent{
		Type:     domain.EventRememberTokenReused,
		UserID:   "01J00000000000000000000000",
		IP:       "192.0.2.1",
		At:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Metadata: map[string]string{"series_id": "abc"},
	}
}

func TestKafkaSink(t *testing.T) {
	t.Parallel()

	t.Run("publishes json keyed by user", func(t *testing.T) {
		w := &recordingWriter{}
		sink := &KafkaSink{writer: w}

		require.NoError(t, sink.Emit(context.Background(), testEvent()))
		require.Len(t, w.msgs, 1)

		msg := w.msgs[0]
		require.Equal(t, "01J00000000000000000000000", string(msg.Key))
		require.Equal(t, "event-type", msg.Headers[0].Key)
		require.Equal(t, domain.EventRememberTokenReused, string(msg.Headers[0].Value))

		var got domain.SecurityEvent
		require.NoError(t, json.Unmarshal(msg.Value, &got))
		require.Equal(t, testEvent(), got)

		require.NoError(t, sink.Close())
		require.True(t, w.closed)
	})

	t.Run("wraps write errors", func(t *testing.T) {
		boom := errors.New("broker down")
		sink := &KafkaSink{writer: &recordingWriter{err: boom}}
		require.ErrorIs(t, sink.Emit(context.Background(), testEvent()), boom)
	})

	t.Run("requires brokers", func(t *testing.T) {
		_, err := NewKafkaSink(nil, "", nil)
		require.Error(t, err)
	})

	t.Run("writes asynchronously", func(t *testing.T) {
		var buf bytes.Buffer
		sink, err := NewKafkaSink([]string{"localhost:9092"}, "", slog.New(slog.NewJSONHandler(&buf, nil)))
		require.NoError(t, err)
		t.Cleanup(func() { _ = sink.Close() })

		w, ok := sink.writer.(*kafka.Writer)
		require.True(t, ok)
		require.True(t, w.Async)
		require.Equal(t, DefaultTopic, w.Topic)

		w.Completion([]kafka.Message{{
			Key:     []byte("01J00000000000000000000000"),
			Headers: []kafka.Header{{Key: "event-type", Value: []byte(domain.EventTOTPRejected)}},
		}}, errors.New("broker down"))

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, "failed to publish security event", line["msg"])
		require.Equal(t, domain.EventTOTPRejected, line["event"])
		require.Equal(t, "broker down", line["error"])
	})
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, sink.Emit(context.Background(), testEvent()))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "WARN", line["level"])
	require.Equal(t, "security event", line["msg"])
	require.Equal(t, domain.EventRememberTokenReused, line["event"])
	require.Equal(t, "abc", line["meta.series_id"])
}

func TestMulti(t *testing.T) {
	var calls int
	ok := sinkFunc(func(context.Context, domain.SecurityEvent) error { calls++; return nil })
	boom := errors.New("boom")
	failing := sinkFunc(func(context.Context, domain.SecurityEvent) error { calls++; return boom })

	err := Multi{ok, failing, ok}.Emit(context.Background(), testEvent())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)

	require.NoError(t, Multi{}.Emit(context.Background(), testEvent()))
	require.NoError(t, Discard{}.Emit(context.Background(), testEvent()))
}
