package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeReader struct {
	msgs      []kafka.Message
	committed int
	cancel    context.CancelFunc
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		f.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.committed += len(msgs)
	return nil
}

func (f *fakeReader) Close() error { return nil }

func encode(t *testing.T, ev TripEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDecodeRejectsIncompleteEvents(t *testing.T) {
	if _, err := Decode([]byte(`{"type":"LEAVING"}`)); err == nil {
		t.Fatal("missing carpoolId should fail")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("garbage should fail")
	}
	ev, err := Decode([]byte(`{"type":"NEAR_STOP","carpoolId":"c1","requestId":"r1"}`))
	if err != nil || ev.RequestID != "r1" {
		t.Fatalf("ev = %+v, err = %v", ev, err)
	}
}

func TestConsumerSkipsBadMessagesAndCommitsAll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good := TripEvent{Type: "LEAVING", CarpoolID: "c1", At: time.Now().UTC()}
	reader := &fakeReader{
		msgs: []kafka.Message{
			{Value: encode(t, good), Offset: 1},
			{Value: []byte("{"), Offset: 2},
			{Value: encode(t, TripEvent{Type: "FINAL_DESTINATION", CarpoolID: "c1"}), Offset: 3},
		},
		cancel: cancel,
	}
	c := &Consumer{reader: reader, logger: zap.NewNop()}

	var seen []string
	err := c.Run(ctx, func(_ context.Context, ev TripEvent) error {
		seen = append(seen, ev.Type)
		if ev.Type == "FINAL_DESTINATION" {
			return errors.New("sink down")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != 2 || seen[0] != "LEAVING" {
		t.Fatalf("seen = %v", seen)
	}
	if reader.committed != 3 {
		t.Fatalf("committed = %d, want 3", reader.committed)
	}
}
