// Package finops holds the model-facing vocabulary shared by the mail
// automation packages: messages, tool calls, chat options, response schemas
// and categorized errors.
//
// Concrete model clients live under internal/provider and are assembled by
// the client package. Graphs, nodes and agents depend only on the
// [ChatProvider] interface declared here and receive their model client
// explicitly from the process entry point.
//
// # Basic Usage
//
//	c, err := client.New(ctx, client.Config{
//	    Provider: ai.ProviderAnthropic,
//	    APIKey:   os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := c.Chat(ctx, []ai.Message{
//	    ai.UserMessage("결제 계좌를 어떻게 바꾸나요?"),
//	})
//
// # Structured Output
//
// Request a JSON object matching a schema with [WithResponseSchema]. Each
// provider adapter maps the schema onto its native mechanism (a forced tool
// for Anthropic, strict json_schema for OpenAI, a response schema for
// Gemini). The structured package validates the returned document before
// handing it to callers.
//
// # Error Handling
//
// Provider errors are wrapped in [Error] with an [ErrorCategory] read by
// [CategoryOf]. The client package retries transient failures.
package finops
