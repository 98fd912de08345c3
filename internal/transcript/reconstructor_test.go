package transcript

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/prasaja/wicara/domain/entities"
)

func TestUserTurnCommitOrdering(t *testing.T) {
	r := NewReconstructor(zap.NewNop())

	r.AppendDelta(entities.RoleUser, "Hi ")
	r.AppendDelta(entities.RoleUser, "there")
	r.OnTurnComplete()

	messages := r.Messages()
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	if messages[0].Role != entities.RoleUser {
		t.Errorf("Expected user role, got %s", messages[0].Role)
	}
	if messages[0].Text != "Hi there" {
		t.Errorf("Expected text %q, got %q", "Hi there", messages[0].Text)
	}
	if r.Partial(entities.RoleUser) != "" {
		t.Error("User buffer must be empty after commit")
	}
}

func TestAudioStartFlushPrecedence(t *testing.T) {
	r := NewReconstructor(zap.NewNop())

	r.AppendDelta(entities.RoleUser, "What's the weather?")
	r.OnModelAudioStart()
	r.AppendDelta(entities.RoleModel, "It's ")
	r.AppendDelta(entities.RoleModel, "sunny.")
	r.OnTurnComplete()

	messages := r.Messages()
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != entities.RoleUser {
		t.Errorf("Expected first message from user, got %s", messages[0].Role)
	}
	if messages[1].Role != entities.RoleModel {
		t.Errorf("Expected second message from model, got %s", messages[1].Role)
	}
	if messages[1].Text != "It's sunny." {
		t.Errorf("Expected model text %q, got %q", "It's sunny.", messages[1].Text)
	}

	// The user message was committed at audio-start; its timestamp must not
	// be later than the model's.
	if messages[0].CreatedAt.After(messages[1].CreatedAt) {
		t.Error("User message must be committed before the model message")
	}
}

func TestTurnCompleteCommitsModelBeforeUser(t *testing.T) {
	r := NewReconstructor(zap.NewNop())

	// Both buffers pending on the same turn-complete: model first preserves
	// causal order.
	r.AppendDelta(entities.RoleModel, "Answer")
	r.AppendDelta(entities.RoleUser, "Next question")
	r.OnTurnComplete()

	messages := r.Messages()
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != entities.RoleModel || messages[1].Role != entities.RoleUser {
		t.Errorf("Expected [model, user], got [%s, %s]", messages[0].Role, messages[1].Role)
	}
}

func TestInterruptionTruncation(t *testing.T) {
	r := NewReconstructor(zap.NewNop())

	r.AppendDelta(entities.RoleUser, "pending user speech")
	r.AppendDelta(entities.RoleModel, "Hello wor")
	r.OnInterrupted()

	messages := r.Messages()
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	if !messages[0].Interrupted {
		t.Error("Expected interrupted flag on committed model message")
	}
	if !strings.HasSuffix(messages[0].Text, TruncationMarker) {
		t.Errorf("Expected truncation marker suffix, got %q", messages[0].Text)
	}
	if !strings.HasPrefix(messages[0].Text, "Hello wor") {
		t.Errorf("Expected original text prefix, got %q", messages[0].Text)
	}

	// The user was not interrupted; the user buffer stays.
	if r.Partial(entities.RoleUser) != "pending user speech" {
		t.Errorf("User buffer must be untouched, got %q", r.Partial(entities.RoleUser))
	}
}

func TestEmptyBuffersCommitNothing(t *testing.T) {
	r := NewReconstructor(zap.NewNop())

	r.OnModelAudioStart()
	r.OnTurnComplete()
	r.OnInterrupted()

	if len(r.Messages()) != 0 {
		t.Errorf("Expected no messages, got %d", len(r.Messages()))
	}
}

func TestBufferNeverCommittedTwice(t *testing.T) {
	r := NewReconstructor(zap.NewNop())

	r.AppendDelta(entities.RoleUser, "once")
	r.OnModelAudioStart()
	r.OnTurnComplete()

	if len(r.Messages()) != 1 {
		t.Fatalf("Expected exactly 1 message, got %d", len(r.Messages()))
	}
}

func TestPartialSurfacesGrowingBuffer(t *testing.T) {
	r := NewReconstructor(zap.NewNop())

	r.AppendDelta(entities.RoleModel, "strea")
	if r.Partial(entities.RoleModel) != "strea" {
		t.Errorf("Expected partial %q, got %q", "strea", r.Partial(entities.RoleModel))
	}
	r.AppendDelta(entities.RoleModel, "ming")
	if r.Partial(entities.RoleModel) != "streaming" {
		t.Errorf("Expected partial %q, got %q", "streaming", r.Partial(entities.RoleModel))
	}
	if len(r.Messages()) != 0 {
		t.Error("Partial deltas must not commit messages")
	}
}

func TestReset(t *testing.T) {
	r := NewReconstructor(zap.NewNop())

	r.AppendDelta(entities.RoleUser, "abc")
	r.AppendDelta(entities.RoleModel, "def")
	r.OnTurnComplete()
	r.AppendDelta(entities.RoleUser, "pending")
	r.Reset()

	if len(r.Messages()) != 0 {
		t.Error("Reset must clear the message log")
	}
	if r.Partial(entities.RoleUser) != "" || r.Partial(entities.RoleModel) != "" {
		t.Error("Reset must clear both accumulators")
	}
}
