// Package client builds the model client the rest of the module depends on.
//
// A Client wraps one provider adapter (Anthropic, OpenAI or Gemini) and adds
// default request options and automatic retries with exponential backoff for
// transient failures (rate limits, 5xx responses, network timeouts). Nodes
// never retry; a failure that survives the client's retry policy is final.
//
//	c, err := client.New(ctx, client.Config{
//	    Provider: ai.ProviderOpenAI,
//	    APIKey:   os.Getenv("OPENAI_API_KEY"),
//	    Model:    "gpt-4o-mini",
//	})
//
// The returned client satisfies ai.ChatProvider and is passed explicitly to
// graph and agent constructors.
package client
