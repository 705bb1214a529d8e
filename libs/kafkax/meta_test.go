package kafkax

import (
	"reflect"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestExtractEventMeta(t *testing.T) {
	msg := kafka.Message{
		Topic: "tracker.appointment.created.v1",
		Key:   []byte("a1"),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte("evt-1")},
			{Key: "event_type", Value: []byte("tracker.appointment.created.v1")},
		},
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "evt-1" || meta.EventType != "tracker.appointment.created.v1" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestExtractEventMetaFallsBackToKeyAndTopic(t *testing.T) {
	msg := kafka.Message{
		Topic: "directory.staff.upserted.v1",
		Key:   []byte("s1"),
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "s1" {
		t.Fatalf("event id fallback = %q, want message key", meta.EventID)
	}
	if meta.EventType != "directory.staff.upserted.v1" {
		t.Fatalf("event type fallback = %q, want topic", meta.EventType)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092 ")
	want := []string{"kafka-1:9092", "kafka-2:9092"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitBrokers = %v, want %v", got, want)
	}
	if got := SplitBrokers(""); got != nil {
		t.Fatalf("empty input: %v, want nil", got)
	}
}

func TestInjectTraceHeadersPreservesExisting(t *testing.T) {
	headers := []kafka.Header{
		{Key: "event_id", Value: []byte("evt-1")},
	}
	// No recording span in context, so nothing to inject; existing
	// headers must come back untouched either way.
	out := InjectTraceHeaders(t.Context(), headers)
	if len(out) < 1 || out[0].Key != "event_id" || string(out[0].Value) != "evt-1" {
		t.Fatalf("existing headers lost: %v", out)
	}
}
