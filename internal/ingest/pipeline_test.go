package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mhrezaei/telescribe/internal/database"
	"github.com/mhrezaei/telescribe/internal/ingest"
)

// fakeGateway records ingest calls and simulates the store's dedup arbiter.
type fakeGateway struct {
	seen  map[string]bool
	calls []ingestCall
	err   error
}

type ingestCall struct {
	chat *database.Chat
	user *database.User
	msg  *database.Message
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{seen: map[string]bool{}}
}

func (g *fakeGateway) Ingest(_ context.Context, chat *database.Chat, user *database.User, msg *database.Message) (database.InsertResult, error) {
	if g.err != nil {
		return 0, g.err
	}
	g.calls = append(g.calls, ingestCall{chat: chat, user: user, msg: msg})
	if g.seen[msg.DedupKey] {
		return database.Duplicate, nil
	}
	g.seen[msg.DedupKey] = true
	return database.Inserted, nil
}

func rawMsg(id int64, text string) ingest.RawMessage {
	return ingest.RawMessage{
		MessageID: id,
		Chat:      ingest.RawChat{ID: 100, Title: "Team", Type: "group"},
		Sender:    &ingest.RawUser{ID: 7, Username: "alice"},
		Text:      text,
		Date:      time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestPipeline_IngestOnceThenDuplicate(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	p := ingest.NewPipeline(gw, nil)
	ctx := context.Background()

	res, err := p.Ingest(ctx, rawMsg(1, "hi"))
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	if res != ingest.ResultInserted {
		t.Fatalf("first Ingest = %v, want ResultInserted", res)
	}

	res, err = p.Ingest(ctx, rawMsg(1, "hi"))
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if res != ingest.ResultDuplicate {
		t.Fatalf("redelivery = %v, want ResultDuplicate", res)
	}
}

func TestPipeline_EditedTextIsDistinct(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	p := ingest.NewPipeline(gw, nil)
	ctx := context.Background()

	if res, _ := p.Ingest(ctx, rawMsg(1, "hi")); res != ingest.ResultInserted {
		t.Fatalf("original = %v, want ResultInserted", res)
	}
	if res, _ := p.Ingest(ctx, rawMsg(1, "hi edited")); res != ingest.ResultInserted {
		t.Fatalf("edited redelivery = %v, want ResultInserted", res)
	}
	if len(gw.calls) != 2 {
		t.Fatalf("gateway calls = %d, want 2", len(gw.calls))
	}
	if gw.calls[0].msg.DedupKey == gw.calls[1].msg.DedupKey {
		t.Error("edited message shares a dedup key with the original")
	}
}

func TestPipeline_SkipsMessagesWithoutText(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	p := ingest.NewPipeline(gw, nil)

	res, err := p.Ingest(context.Background(), rawMsg(1, ""))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res != ingest.ResultSkipped {
		t.Fatalf("result = %v, want ResultSkipped", res)
	}
	if len(gw.calls) != 0 {
		t.Errorf("gateway touched for a textless message: %d calls", len(gw.calls))
	}
}

func TestPipeline_PassesNormalizedRecordsTogether(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	p := ingest.NewPipeline(gw, nil)

	if _, err := p.Ingest(context.Background(), rawMsg(5, "hello")); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	call := gw.calls[0]
	if call.chat == nil || call.chat.ChatID != 100 {
		t.Errorf("chat record missing or wrong: %+v", call.chat)
	}
	if call.user == nil || call.user.UserID != 7 {
		t.Errorf("user record missing or wrong: %+v", call.user)
	}
	if call.msg.DedupKey != ingest.MessageKey(5, 100, "hello") {
		t.Errorf("dedup key mismatch: %q", call.msg.DedupKey)
	}
	if call.msg.ChatID != call.chat.ChatID {
		t.Error("message chat id does not match the chat record")
	}
}

func TestPipeline_PropagatesGatewayErrors(t *testing.T) {
	t.Parallel()

	gw := newFakeGateway()
	gw.err = database.ErrIntegrity
	p := ingest.NewPipeline(gw, nil)

	_, err := p.Ingest(context.Background(), rawMsg(1, "hi"))
	if !errors.Is(err, database.ErrIntegrity) {
		t.Fatalf("err = %v, want wrapped ErrIntegrity", err)
	}
}
