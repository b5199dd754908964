package chatservice

import (
	"context"
	"strings"
	"time"

	"github.com/aoyagi/manabi/internal/models"
)

// Responder produces an assistant reply for a user message. Implementations
// may suspend (a future version will call a remote model), so the context
// is honored.
type Responder interface {
	GenerateReply(ctx context.Context, text string, history []models.ChatMessage) (string, error)
}

// Reply templates. Exactly one fires per message; see classify for the
// priority order.
const (
	replyGoal = "いい目標ですね。もう少し教えてください：その目標を達成したら、何が変わりますか？" +
		"期限と、達成したと言える具体的な状態を決めると動きやすくなります。"
	replyProject = "プロジェクトの話、ぜひ聞かせてください。いま一番詰まっているのはどこですか？" +
		"スコープを「今週やること」と「やらないこと」に分けてみると整理しやすいですよ。"
	replyCareer = "キャリアの方向性を考えるのは大事な時間です。最近の学習ログの中で、" +
		"一番夢中になれたものは何でしたか？そこにヒントがあるかもしれません。"
	replyStudyPlan = "学習計画を見直してみましょう。今週は何にどれくらい時間を使う予定ですか？" +
		"詰め込みすぎより、毎日続けられる量に絞るのがおすすめです。"
	replyIdea = "面白そうなアイデアですね。壁打ちしましょう：それは誰の、どんな困りごとを解決しますか？" +
		"一番小さく試す方法を一緒に考えてみませんか。"
	replyGeneric = "なるほど。もう少し詳しく聞かせてください。具体的にはどんな場面の話ですか？"
)

// keywordRules is checked in order; the first matching rule wins.
var keywordRules = []struct {
	keywords []string
	reply    string
}{
	{[]string{"目標", "ゴール", "goal"}, replyGoal},
	{[]string{"プロジェクト", "project"}, replyProject},
	{[]string{"キャリア", "就職", "career"}, replyCareer},
	{[]string{"学習", "勉強", "計画", "study", "plan"}, replyStudyPlan},
	{[]string{"アイデア", "アイディア", "idea"}, replyIdea},
}

// MockResponder is a deterministic, stateless keyword classifier standing
// in for a real AI backend. The delay simulates network latency.
type MockResponder struct {
	delay time.Duration
}

// NewMockResponder creates a mock responder with the given simulated latency.
func NewMockResponder(delay time.Duration) *MockResponder {
	return &MockResponder{delay: delay}
}

// GenerateReply classifies the lowered input text and returns the matching
// template. History is unused by the mock but part of the contract so a
// real backend can drop in.
func (m *MockResponder) GenerateReply(ctx context.Context, text string, _ []models.ChatMessage) (string, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return classify(text), nil
}

func classify(text string) string {
	lowered := strings.ToLower(text)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.reply
			}
		}
	}
	return replyGeneric
}
