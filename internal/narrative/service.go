package narrative

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Headings the recommendation must use, in order
const (
	SectionCurrentState = "現状の要約"
	SectionNextAction   = "推奨する次の一手"
	SectionOutcome      = "期待される成果"
)

const systemPrompt = `あなたは中小企業のWebサイトを支援する経験豊富なマーケティングコンサルタントです。
GA4の集計結果とビジネス目標だけを根拠に、経営者がすぐ実行できる具体的な提案をしてください。
専門用語は避け、数値は要約に含まれるものだけを使ってください。`

// BuildPrompt returns the system prompt and the user message for a goal
// and dashboard summary
func BuildPrompt(goal, summary string) (string, string) {
	var b strings.Builder

	b.WriteString("## ビジネス目標\n")
	b.WriteString(goal)
	b.WriteString("\n\n## 直近30日のGA4データ\n")
	b.WriteString(strings.TrimSpace(summary))
	b.WriteString("\n\n以下の3つの見出しをこの順番で使い、Markdownで回答してください。\n")
	fmt.Fprintf(&b, "### 1. %s\n", SectionCurrentState)
	b.WriteString("データから読み取れるサイトの状態を2〜3文で。\n")
	fmt.Fprintf(&b, "### 2. %s\n", SectionNextAction)
	b.WriteString("目標に最も効く施策を1つだけ、理由とともに。\n")
	fmt.Fprintf(&b, "### 3. %s\n", SectionOutcome)
	b.WriteString("施策を実行した場合に期待できる変化。\n")

	return systemPrompt, b.String()
}

// Service turns a dashboard summary into a recommendation
type Service struct {
	provider Provider
	log      *zap.Logger
}

func NewService(provider Provider, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{provider: provider, log: log}
}

// Recommend asks the provider for the next action. The reply is returned as is.
func (s *Service) Recommend(ctx context.Context, goal, summary string) (string, error) {
	if strings.TrimSpace(goal) == "" {
		return "", ErrNoGoal
	}

	system, user := BuildPrompt(goal, summary)

	s.log.Debug("requesting recommendation",
		zap.String("provider", s.provider.GetProviderName()),
		zap.Int("prompt_chars", len(system)+len(user)))

	text, err := s.provider.GenerateResponse(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.provider.GetProviderName(), err)
	}
	return text, nil
}
