package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// AuthError indicates authentication/authorization failures (401/403).
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.APIError.Error())
}

// RateLimitError indicates 429 responses and may include a Retry-After.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: wait about %ds before retrying: %s", int(e.RetryAfter.Seconds()), e.APIError.Error())
	}
	return fmt.Sprintf("rate limited: %s", e.APIError.Error())
}

// ModelNotFoundError indicates the requested model is not available.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.APIError.Error())
}

type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// QuotaExceededError indicates exhausted credits (402) or a billing quota.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s", e.APIError.Error())
}

// ServerError indicates 5xx errors from the provider.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("provider error: %s", e.APIError.Error()) }

// UnreachableError indicates the target runtime is not reachable (e.g., local Ollama down).
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// classifyAPIError maps a raw APIError onto the typed errors above.
func classifyAPIError(apiErr *APIError, h http.Header) error {
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case apiErr.StatusCode == http.StatusPaymentRequired:
		return &QuotaExceededError{APIError: apiErr}
	case apiErr.StatusCode == http.StatusTooManyRequests:
		if containsFold(apiErr.Code, "quota") || containsFold(apiErr.Message, "quota") {
			return &QuotaExceededError{APIError: apiErr}
		}
		return &RateLimitError{APIError: apiErr, RetryAfter: retryAfter(h)}
	case apiErr.StatusCode == http.StatusNotFound:
		return &ModelNotFoundError{APIError: apiErr}
	case apiErr.StatusCode >= 500:
		return &ServerError{APIError: apiErr}
	case apiErr.StatusCode >= 400:
		if containsFold(apiErr.Message, "model") && containsFold(apiErr.Message, "not found") {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return &BadRequestError{APIError: apiErr}
	}
	return apiErr
}

func containsFold(s, sub string) bool {
	return sub != "" && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Messages shown to the person asking questions in chat.
const (
	MsgRateLimited  = "Limite de requisições excedido. Tente novamente em alguns segundos."
	MsgNoCredits    = "Créditos de IA esgotados. Adicione mais créditos ao seu workspace."
	MsgGenericError = "Erro ao processar sua pergunta"
	MsgUnreachable  = "Serviço de IA indisponível no momento."
)

// UserMessage returns a short Portuguese message for err suitable for
// display in place of an answer. It returns "" for nil.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		rl    *RateLimitError
		quota *QuotaExceededError
		unr   *UnreachableError
	)
	switch {
	case errors.As(err, &rl):
		return MsgRateLimited
	case errors.As(err, &quota):
		return MsgNoCredits
	case errors.As(err, &unr), errors.Is(err, context.DeadlineExceeded):
		return MsgUnreachable
	}
	return MsgGenericError
}
