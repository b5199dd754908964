package chatservice

import (
	"context"
	"errors"
	"testing"

	"github.com/aoyagi/manabi/internal/models"
	"github.com/aoyagi/manabi/internal/store"
)

type stubResponder struct {
	reply string
	err   error
}

func (s stubResponder) GenerateReply(context.Context, string, []models.ChatMessage) (string, error) {
	return s.reply, s.err
}

func testChat(t *testing.T, r Responder) (*Service, *store.Files) {
	t.Helper()
	st, err := store.NewFiles(t.TempDir())
	if err != nil {
		t.Fatalf("NewFiles: %v", err)
	}
	return NewService(st, r, nil), st
}

func TestSendMessageAppendsUserAndReply(t *testing.T) {
	svc, st := testChat(t, NewMockResponder(0))
	ctx := context.Background()

	reply, err := svc.SendMessage(ctx, "今取り組んでいるプロジェクトについて話したい")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	// Project keyword fires the project-scoping template, exact match.
	if reply.Content != replyProject {
		t.Errorf("reply = %q, want project template", reply.Content)
	}
	if reply.IsUser {
		t.Error("reply marked as user message")
	}

	msgs := svc.Messages()
	if len(msgs) != 2 || !msgs[0].IsUser || msgs[1].IsUser {
		t.Fatalf("history = %+v", msgs)
	}

	persisted, err := st.LoadChatHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 2 {
		t.Errorf("persisted = %d messages, want 2", len(persisted))
	}
}

func TestSendMessageWhitespaceIsNoOp(t *testing.T) {
	svc, st := testChat(t, NewMockResponder(0))
	ctx := context.Background()

	for _, in := range []string{"", "   ", "\n\t "} {
		if _, err := svc.SendMessage(ctx, in); err != nil {
			t.Fatalf("SendMessage(%q): %v", in, err)
		}
	}
	if len(svc.Messages()) != 0 {
		t.Error("whitespace input appended messages")
	}
	persisted, _ := st.LoadChatHistory()
	if len(persisted) != 0 {
		t.Error("whitespace input was persisted")
	}
}

func TestSendMessageResponderFailure(t *testing.T) {
	boom := errors.New("model unavailable")
	svc, st := testChat(t, stubResponder{err: boom})
	ctx := context.Background()

	fallback, err := svc.SendMessage(ctx, "こんにちは")
	// Both happen: the fallback turn is appended AND the error surfaces.
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped responder error", err)
	}
	if fallback.Content != FallbackReply {
		t.Errorf("fallback = %q", fallback.Content)
	}

	msgs := svc.Messages()
	if len(msgs) != 2 || msgs[1].Content != FallbackReply {
		t.Fatalf("history = %+v", msgs)
	}
	persisted, _ := st.LoadChatHistory()
	if len(persisted) != 2 {
		t.Errorf("persisted = %d messages, want 2", len(persisted))
	}
}

func TestClearHistory(t *testing.T) {
	svc, st := testChat(t, NewMockResponder(0))
	ctx := context.Background()

	if _, err := svc.SendMessage(ctx, "目標について"); err != nil {
		t.Fatal(err)
	}
	svc.ClearHistory(ctx)

	if len(svc.Messages()) != 0 {
		t.Error("memory not emptied")
	}
	persisted, err := st.LoadChatHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 0 {
		t.Error("file not removed")
	}
}

func TestLoadHistory(t *testing.T) {
	st, err := store.NewFiles(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	seed := []models.ChatMessage{
		models.NewChatMessage("前回の質問", true),
		models.NewChatMessage("前回の回答", false),
	}
	if err := st.SaveChatHistory(seed); err != nil {
		t.Fatal(err)
	}

	svc := NewService(st, NewMockResponder(0), nil)
	if err := svc.LoadHistory(context.Background()); err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	msgs := svc.Messages()
	if len(msgs) != 2 || msgs[0].Content != "前回の質問" {
		t.Errorf("history = %+v", msgs)
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"goal", "今年の目標を決めたい", replyGoal},
		{"goal beats project", "プロジェクトの目標について", replyGoal},
		{"project", "新しいprojectを始めた", replyProject},
		{"career", "キャリアの方向性について相談したい", replyCareer},
		{"study plan", "学習計画のフィードバックが欲しい", replyStudyPlan},
		{"idea", "アイデアを壁打ちしたい", replyIdea},
		{"generic", "こんにちは", replyGeneric},
		{"english keyword case folded", "my GOAL for this year", replyGoal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.in); got != tt.want {
				t.Errorf("classify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMockResponderHonorsContext(t *testing.T) {
	r := NewMockResponder(1e9) // 1s delay, must not elapse
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.GenerateReply(ctx, "x", nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
