/*
Package openai adapts OpenAI's chat completion API to the session.ModelSender
contract. A sender turns the transcript of a state into a completion request,
performs one non streaming call and hands the answer back as a single message.

# Available Models

The package provides several pre-configured senders:

  - GPT4oMini(): Smaller, faster GPT-4 model
  - GPT4o(): Full GPT-4 model with latest capabilities
  - O1Mini(): Smaller version of the O1 model
  - O1(): Full O1 model

Custom models can be created using the Model() function:

	model := openai.Model("custom-model-name",
		option.WithAPIKey("your-key"),
		option.WithOrganization("your-org"),
	)

Senders with the same model name are shared, so repeated calls to Model()
reuse one client. Default() resolves the model name from the
LOOM_DEFAULT_MODEL environment variable and falls back to GPT4oMini.

# Message Handling

Transcript roles map onto the OpenAI message shapes: system, user and
assistant messages carry their content verbatim, tool messages become tool
results keyed by the call id in their metadata, and control messages
carrying tool calls become assistant messages with tool_calls attached. The
sender of the newest user message is forwarded as the request's end user
identifier.

# Tool Integration

Tool specs advertised on the request are converted to OpenAI function
definitions, each schema attached as the function's parameters:

	msg, err := sender.Send(ctx, session.Request{
		State: st,
		Tools: []session.ToolSpec{spec},
	})

When the model answers with tool calls instead of prose, Send returns a
control message; decode it with messages.Message.ToolCalls and answer each
call with messages.ToolResponse.

# Configuration

Client behavior is configured through the SDK's request options:

	sender := openai.New(openai.ChatModelGPT4oMini,
		option.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
		option.WithTimeout(30*time.Second),
	)

The API key defaults to the OPENAI_API_KEY environment variable, which the
SDK reads on its own.
*/
package openai
