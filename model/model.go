// Package model is the catalogue of chat models the client can reach, with
// per-token pricing used for cost accounting.
package model

import (
	ai "github.com/good-jinu/finance-operating-automation-sub000"
)

// ChatModel is a chat/completion model from one provider.
type ChatModel struct {
	id       string
	provider ai.Provider
	pricing  ChatPricing
}

// String returns the API identifier for this model.
func (m ChatModel) String() string { return m.id }

// Provider returns which provider this model belongs to.
func (m ChatModel) Provider() ai.Provider { return m.provider }

// Pricing returns the pricing for this model.
func (m ChatModel) Pricing() ChatPricing { return m.pricing }

// Cost returns the USD cost of usage on this model.
func (m ChatModel) Cost(usage ai.Usage) float64 {
	return CalculateCost(usage, m.pricing)
}

// ChatPricing is the price per million tokens (USD).
type ChatPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// CalculateCost returns the USD cost of usage under pricing.
func CalculateCost(usage ai.Usage, pricing ChatPricing) float64 {
	return float64(usage.InputTokens)/1_000_000*pricing.InputPerMillion +
		float64(usage.OutputTokens)/1_000_000*pricing.OutputPerMillion
}

// Model pricing last verified: December 14, 2025
var (
	ClaudeSonnet45 = ChatModel{id: "claude-sonnet-4-5", provider: ai.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 3.00, OutputPerMillion: 15.00}}
	ClaudeHaiku45  = ChatModel{id: "claude-haiku-4-5", provider: ai.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 1.00, OutputPerMillion: 5.00}}
	ClaudeOpus45   = ChatModel{id: "claude-opus-4-5", provider: ai.ProviderAnthropic, pricing: ChatPricing{InputPerMillion: 5.00, OutputPerMillion: 25.00}}

	GPT4oMini = ChatModel{id: "gpt-4o-mini", provider: ai.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.15, OutputPerMillion: 0.60}}
	GPT4o     = ChatModel{id: "gpt-4o", provider: ai.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 2.50, OutputPerMillion: 10.00}}
	GPT5Mini  = ChatModel{id: "gpt-5-mini", provider: ai.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 0.25, OutputPerMillion: 1.00}}
	GPT5      = ChatModel{id: "gpt-5", provider: ai.ProviderOpenAI, pricing: ChatPricing{InputPerMillion: 1.25, OutputPerMillion: 10.00}}

	Gemini25Flash     = ChatModel{id: "gemini-2.5-flash", provider: ai.ProviderGoogle, pricing: ChatPricing{InputPerMillion: 0.15, OutputPerMillion: 0.60}}
	Gemini25FlashLite = ChatModel{id: "gemini-2.5-flash-lite", provider: ai.ProviderGoogle, pricing: ChatPricing{InputPerMillion: 0.075, OutputPerMillion: 0.30}}
	Gemini25Pro       = ChatModel{id: "gemini-2.5-pro", provider: ai.ProviderGoogle, pricing: ChatPricing{InputPerMillion: 1.25, OutputPerMillion: 10.00}}
)

var catalogue = []ChatModel{
	ClaudeSonnet45, ClaudeHaiku45, ClaudeOpus45,
	GPT4oMini, GPT4o, GPT5Mini, GPT5,
	Gemini25Flash, Gemini25FlashLite, Gemini25Pro,
}

// Lookup finds a catalogued model by API identifier.
func Lookup(id string) (ChatModel, bool) {
	for _, m := range catalogue {
		if m.id == id {
			return m, true
		}
	}
	return ChatModel{}, false
}

// Default returns the model used when none is configured for provider.
// It matches the provider adapters' own defaults.
func Default(p ai.Provider) ChatModel {
	switch p {
	case ai.ProviderAnthropic:
		return ClaudeSonnet45
	case ai.ProviderGoogle:
		return Gemini25Flash
	default:
		return GPT4oMini
	}
}
