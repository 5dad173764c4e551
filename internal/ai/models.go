package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ModelInfo describes a chat model's context window and pricing.
// Prices are approximate and only used for usage estimates.
type ModelInfo struct {
	Name          string  `json:"name"`
	ContextTokens int     `json:"context_tokens"`
	InputPerK     float64 `json:"input_per_k"`  // USD per 1K input tokens
	OutputPerK    float64 `json:"output_per_k"` // USD per 1K output tokens
}

var (
	catalogMu sync.RWMutex
	catalog   = map[string]ModelInfo{
		"google/gemini-2.5-flash":       {Name: "google/gemini-2.5-flash", ContextTokens: 1048576, InputPerK: 0.0003, OutputPerK: 0.0025},
		"google/gemini-2.5-pro":         {Name: "google/gemini-2.5-pro", ContextTokens: 1048576, InputPerK: 0.00125, OutputPerK: 0.01},
		"google/gemini-3-flash-preview": {Name: "google/gemini-3-flash-preview", ContextTokens: 1048576, InputPerK: 0.0005, OutputPerK: 0.003},
		"openai/gpt-4o-mini":            {Name: "openai/gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
		"anthropic/claude-3-haiku":      {Name: "anthropic/claude-3-haiku", ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125},
		"llama3.1:8b":                   {Name: "llama3.1:8b", ContextTokens: 8192},
	}
)

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	mi, ok := catalog[name]
	return mi, ok
}

// Catalog returns a copy of the model catalog.
func Catalog() map[string]ModelInfo {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	out := make(map[string]ModelInfo, len(catalog))
	for k, v := range catalog {
		out[k] = v
	}
	return out
}

// ContextBudget returns the model's context window, or fallback when unknown.
func ContextBudget(model string, fallback int) int {
	if mi, ok := LookupModel(model); ok && mi.ContextTokens > 0 {
		return mi.ContextTokens
	}
	return fallback
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	return float64(promptTokens)/1000*mi.InputPerK + float64(completionTokens)/1000*mi.OutputPerK, true
}

// MergeCatalogFile merges entries from a JSON object keyed by model name.
func MergeCatalogFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var m map[string]ModelInfo
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("parse model catalog %s: %w", path, err)
	}
	catalogMu.Lock()
	defer catalogMu.Unlock()
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
		}
		catalog[k] = v
	}
	return nil
}
