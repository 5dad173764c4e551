package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/KaramelBytes/instaloom-cli/internal/ai"
	"github.com/KaramelBytes/instaloom-cli/internal/logger"
	"github.com/KaramelBytes/instaloom-cli/internal/utils"
)

var ErrEmptyQuestion = errors.New("question cannot be empty")

// DefaultContextTokens is assumed for models missing from the catalog.
const DefaultContextTokens = 32000

// Options configures a Session.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// ContextTokens caps prompt plus history. Zero uses the model catalog.
	ContextTokens int
	Logger        *logger.Logger
}

// Session is one conversation grounded in a Context. It is safe for
// sequential use from one goroutine at a time; Ask calls are serialized.
type Session struct {
	ID string

	mu      sync.Mutex
	rt      ai.Runtime
	opt     Options
	system  string
	history []ai.Message
	usage   ai.Usage
	log     *logger.Logger
}

// NewSession starts a conversation about c using rt.
func NewSession(rt ai.Runtime, c Context, opt Options) *Session {
	if opt.Model == "" {
		opt.Model = ai.DefaultModel
	}
	if opt.ContextTokens <= 0 {
		opt.ContextTokens = ai.ContextBudget(opt.Model, DefaultContextTokens)
	}
	log := opt.Logger
	if log == nil {
		log = logger.Nop()
	}
	id := uuid.NewString()
	log = log.With("session", id, "model", opt.Model)
	system := SystemPrompt(c)
	// small local models cannot hold the full data summary
	if limit := opt.ContextTokens - opt.MaxTokens; limit > 0 && utils.CountTokens(system) > limit {
		log.Warn("system prompt truncated to fit context", "tokens", utils.CountTokens(system), "limit", limit)
		system = utils.TruncateToTokenLimit(system, limit)
	}
	return &Session{
		ID:     id,
		rt:     rt,
		opt:    opt,
		system: system,
		log:    log,
	}
}

// SystemPrompt returns the rendered system message.
func (s *Session) SystemPrompt() string { return s.system }

// History returns a copy of the user and assistant turns so far.
func (s *Session) History() []ai.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ai.Message(nil), s.history...)
}

// Usage returns the token usage accumulated across answers.
func (s *Session) Usage() ai.Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// EstimatedCostUSD prices the accumulated usage; ok is false for unknown models.
func (s *Session) EstimatedCostUSD() (float64, bool) {
	u := s.Usage()
	return ai.EstimateCostUSD(s.opt.Model, u.PromptTokens, u.CompletionTokens)
}

// Reset forgets the conversation but keeps the data context.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// messages builds the request: system prompt, then as many of the most
// recent turns as fit the budget, then the question.
func (s *Session) messages(question string) []ai.Message {
	budget := s.opt.ContextTokens - s.opt.MaxTokens - utils.CountTokens(s.system) - utils.CountTokens(question)
	start := len(s.history)
	for start > 0 {
		cost := utils.CountTokens(s.history[start-1].Content)
		if cost > budget {
			break
		}
		budget -= cost
		start--
	}
	// keep turns paired so the history never opens with an assistant reply
	if start < len(s.history) && s.history[start].Role == "assistant" {
		start++
	}
	if start > 0 {
		s.log.Debug("trimmed history to fit context", "dropped_turns", start)
	}
	out := make([]ai.Message, 0, len(s.history)-start+2)
	out = append(out, ai.Message{Role: "system", Content: s.system})
	out = append(out, s.history[start:]...)
	return append(out, ai.Message{Role: "user", Content: question})
}

func (s *Session) request(question string) ai.GenerateRequest {
	return ai.GenerateRequest{
		Model:       s.opt.Model,
		Messages:    s.messages(question),
		MaxTokens:   s.opt.MaxTokens,
		Temperature: s.opt.Temperature,
	}
}

// Ask sends question and returns the full answer. On error the question is
// not added to the history; ai.UserMessage(err) gives a displayable message.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, err := s.rt.Generate(ctx, s.request(question))
	if err != nil {
		s.log.Warn("chat request failed", "error", err)
		return "", fmt.Errorf("ask: %w", err)
	}
	answer := resp.Content()
	s.record(question, answer, resp.Usage)
	return answer, nil
}

// AskStream is Ask with incremental output. Runtimes without streaming
// support deliver the whole answer as a single delta.
func (s *Session) AskStream(ctx context.Context, question string, onDelta func(string)) (string, error) {
	sr, ok := s.rt.(ai.StreamRuntime)
	if !ok {
		answer, err := s.Ask(ctx, question)
		if err == nil && answer != "" {
			onDelta(answer)
		}
		return answer, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	req := s.request(question)
	var b strings.Builder
	err := sr.GenerateStream(ctx, req, func(d string) {
		b.WriteString(d)
		onDelta(d)
	})
	if err != nil {
		s.log.Warn("chat stream failed", "error", err, "partial_chars", b.Len())
		return "", fmt.Errorf("ask: %w", err)
	}
	answer := b.String()
	prompt := 0
	for _, m := range req.Messages {
		prompt += utils.CountTokens(m.Content)
	}
	completion := utils.CountTokens(answer)
	s.record(question, answer, ai.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion})
	return answer, nil
}

func (s *Session) record(question, answer string, u ai.Usage) {
	s.history = append(s.history,
		ai.Message{Role: "user", Content: question},
		ai.Message{Role: "assistant", Content: answer},
	)
	s.usage.PromptTokens += u.PromptTokens
	s.usage.CompletionTokens += u.CompletionTokens
	s.usage.TotalTokens += u.TotalTokens
	s.log.Debug("answered", "prompt_tokens", u.PromptTokens, "completion_tokens", u.CompletionTokens)
}
