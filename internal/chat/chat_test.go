package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/instaloom-cli/internal/ai"
	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
)

func fixturePosts() []analysis.Post {
	mk := func(id, typ string, day, hour int, views, likes int64, dur float64, desc string) analysis.Post {
		return analysis.NewPost(analysis.PostInput{
			ID:          id,
			Username:    "cafe.lume",
			PostType:    typ,
			Description: desc,
			Duration:    dur,
			PublishedAt: time.Date(2024, 2, day, hour, 0, 0, 0, time.UTC),
			Views:       views,
			Reach:       views / 2,
			Likes:       likes,
			Comments:    2,
			Follows:     1,
		}, analysis.LocalePTBR)
	}
	return []analysis.Post{
		mk("p3", "Reel do Instagram", 7, 18, 12500, 900, 22.5, strings.Repeat("á", 120)),
		mk("p2", "Carrossel", 6, 9, 800, 40, 0, "Cardápio novo"),
		mk("p1", "Reel do Instagram", 5, 18, 3000, 210, 15, "Bastidores ☕"),
	}
}

type fakeRuntime struct {
	reqs   []ai.GenerateRequest
	answer string
	err    error
}

func (f *fakeRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &ai.GenerateResponse{
		Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: f.answer}}},
		Usage:   ai.Usage{PromptTokens: 100, CompletionTokens: 10, TotalTokens: 110},
	}, nil
}

type fakeStreamRuntime struct {
	fakeRuntime
	chunks []string
}

func (f *fakeStreamRuntime) GenerateStream(_ context.Context, req ai.GenerateRequest, onDelta func(string)) error {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return f.err
	}
	for _, c := range f.chunks {
		onDelta(c)
	}
	return nil
}

func TestBuildContext(t *testing.T) {
	c := BuildContext(fixturePosts(), analysis.LocalePTBR)
	assert.Equal(t, 3, c.TotalPosts)
	assert.EqualValues(t, 16300, c.TotalViews)
	assert.Equal(t, "cafe.lume", c.Profile)
	require.Len(t, c.Posts, 3)
	assert.Equal(t, "07/02/2024", c.Posts[0].PublishedAt)
	assert.Equal(t, "Quarta", c.Posts[0].DayOfWeek)
	require.Len(t, c.TypeStats, 2)
	assert.Equal(t, "Reel do Instagram", c.TypeStats[0].Type)
	assert.Equal(t, 2, c.TypeStats[0].PostCount)

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"totalPosts":3`)
	assert.Contains(t, string(b), `"typeStats"`)
}

func TestSystemPrompt(t *testing.T) {
	p := SystemPrompt(BuildContext(fixturePosts(), analysis.LocalePTBR))
	for _, want := range []string{
		"dados de performance do perfil @cafe.lume",
		"- Total de visualizações: 16.300",
		"Post 1:\n- Tipo: Reel do Instagram",
		"- Visualizações: 12.500",
		"- Duração: 22.5s",
		"- Duração: N/A",
		"- Hora: 18:00",
		"- Descrição: " + strings.Repeat("á", 100) + "...\n",
		"- Reel do Instagram: 2 posts, média 7750 views",
		"Melhores Dias para Postar:\n- Quarta: média 12500 views\n- Segunda: média 3000 views\n- Terça: média 800 views",
		"Melhores Horários:\n- 18:00: média 7750 views\n- 9:00: média 800 views",
		"Posts com Menor Performance (para aprendizado):\n- Carrossel (06/02/2024): 800 views",
		"Posts com Maior Performance:\n- Reel do Instagram (07/02/2024): 12.500 views",
		"## INSTRUÇÕES",
	} {
		assert.Contains(t, p, want)
	}
}

func TestSystemPromptEmpty(t *testing.T) {
	p := SystemPrompt(BuildContext(nil, analysis.LocalePTBR))
	assert.Contains(t, p, "dados de performance do perfil e deve")
	assert.Contains(t, p, "Sem dados disponíveis")
	assert.Contains(t, p, "Performance por Tipo de Conteúdo:\nDados não disponíveis")
	assert.Contains(t, p, "- Taxa de engajamento média: 0.00%")
}

func TestPromptListsAtMostTwentyPosts(t *testing.T) {
	var posts []analysis.Post
	for i := 0; i < 25; i++ {
		posts = append(posts, analysis.NewPost(analysis.PostInput{
			ID:          fmt.Sprint(i),
			PublishedAt: time.Date(2024, 1, 1+i, 10, 0, 0, 0, time.UTC),
			Views:       int64(i),
		}, analysis.LocalePTBR))
	}
	p := SystemPrompt(BuildContext(posts, analysis.LocalePTBR))
	assert.Contains(t, p, "Post 20:")
	assert.NotContains(t, p, "Post 21:")
}

func TestGroupThousands(t *testing.T) {
	cases := map[int64]string{0: "0", 999: "999", 1000: "1.000", 1234567: "1.234.567", -45000: "-45.000"}
	for in, want := range cases {
		assert.Equal(t, want, groupThousands(in))
	}
}

func TestSessionAsk(t *testing.T) {
	rt := &fakeRuntime{answer: "Reels às 18h performam melhor 🎯"}
	s := NewSession(rt, BuildContext(fixturePosts(), analysis.LocalePTBR), Options{Model: "google/gemini-2.5-flash", MaxTokens: 256})
	require.NotEmpty(t, s.ID)

	got, err := s.Ask(context.Background(), "  Qual o melhor horário?  ")
	require.NoError(t, err)
	assert.Equal(t, rt.answer, got)

	_, err = s.Ask(context.Background(), "E o pior dia?")
	require.NoError(t, err)

	require.Len(t, rt.reqs, 2)
	msgs := rt.reqs[1].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "Qual o melhor horário?", msgs[1].Content)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "E o pior dia?", msgs[3].Content)
	assert.Equal(t, 256, rt.reqs[1].MaxTokens)

	assert.Len(t, s.History(), 4)
	assert.Equal(t, 220, s.Usage().TotalTokens)
	cost, ok := s.EstimatedCostUSD()
	assert.True(t, ok)
	assert.Greater(t, cost, 0.0)

	s.Reset()
	assert.Empty(t, s.History())
}

func TestSessionAskErrors(t *testing.T) {
	rt := &fakeRuntime{err: &ai.QuotaExceededError{APIError: &ai.APIError{StatusCode: 402}}}
	s := NewSession(rt, BuildContext(fixturePosts(), analysis.LocalePTBR), Options{})

	_, err := s.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, rt.reqs)

	_, err = s.Ask(context.Background(), "oi")
	require.Error(t, err)
	assert.Equal(t, ai.MsgNoCredits, ai.UserMessage(err))
	assert.Empty(t, s.History(), "failed questions are not kept")
}

func TestSessionTrimsHistory(t *testing.T) {
	rt := &fakeRuntime{answer: strings.Repeat("x", 400)}
	s := NewSession(rt, BuildContext(nil, analysis.LocalePTBR), Options{Model: "m"})
	// room for the system prompt plus roughly one question/answer pair
	s.opt.ContextTokens = len([]rune(s.SystemPrompt()))/4 + 150
	for i := 0; i < 4; i++ {
		_, err := s.Ask(context.Background(), fmt.Sprintf("pergunta %d", i))
		require.NoError(t, err)
	}
	last := rt.reqs[len(rt.reqs)-1].Messages
	assert.Equal(t, "system", last[0].Role)
	assert.Equal(t, "user", last[1].Role, "history must not open with an assistant turn")
	assert.Less(t, len(last), 8)
	assert.Equal(t, "pergunta 3", last[len(last)-1].Content)
}

func TestSessionAskStream(t *testing.T) {
	rt := &fakeStreamRuntime{chunks: []string{"Poste ", "mais ", "Reels"}}
	s := NewSession(rt, BuildContext(fixturePosts(), analysis.LocalePTBR), Options{Model: "unknown/model"})
	var seen []string
	got, err := s.AskStream(context.Background(), "Dica?", func(d string) { seen = append(seen, d) })
	require.NoError(t, err)
	assert.Equal(t, "Poste mais Reels", got)
	assert.Equal(t, rt.chunks, seen)
	assert.Len(t, s.History(), 2)
	assert.Greater(t, s.Usage().PromptTokens, 0)
	_, ok := s.EstimatedCostUSD()
	assert.False(t, ok)

	rt.err = errors.New("boom")
	_, err = s.AskStream(context.Background(), "De novo?", func(string) {})
	assert.Error(t, err)
	assert.Len(t, s.History(), 2)
}

func TestSessionAskStreamFallback(t *testing.T) {
	rt := &fakeRuntime{answer: "tudo certo"}
	s := NewSession(rt, BuildContext(nil, analysis.LocalePTBR), Options{})
	var out string
	_, err := s.AskStream(context.Background(), "ok?", func(d string) { out += d })
	require.NoError(t, err)
	assert.Equal(t, "tudo certo", out)
}

func TestSessionTruncatesOversizedPrompt(t *testing.T) {
	s := NewSession(&fakeRuntime{}, BuildContext(fixturePosts(), analysis.LocalePTBR), Options{Model: "m", ContextTokens: 300, MaxTokens: 100})
	assert.LessOrEqual(t, len([]rune(s.SystemPrompt())), 200*4)
	assert.True(t, strings.HasPrefix(s.SystemPrompt(), "Você é um assistente"))
}
