package openai

import (
	"os"

	"github.com/alphadose/haxmap"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// EnvDefaultModel names the environment variable Default consults for the
// model name.
const EnvDefaultModel = "LOOM_DEFAULT_MODEL"

var senderRegistry = haxmap.New[string, *Sender]()

func GPT4oMini(opts ...option.RequestOption) *Sender {
	return Model(openai.ChatModelGPT4oMini, opts...)
}

func GPT4o(opts ...option.RequestOption) *Sender {
	return Model(openai.ChatModelChatgpt4oLatest, opts...)
}

func O1Mini(opts ...option.RequestOption) *Sender {
	return Model(openai.ChatModelO1Mini, opts...)
}

func O1(opts ...option.RequestOption) *Sender {
	return Model(openai.ChatModelO1, opts...)
}

// Model returns the shared sender for the given model name, creating it on
// first use. Options only take effect on the call that creates the sender.
func Model(name string, opts ...option.RequestOption) *Sender {
	s, _ := senderRegistry.GetOrCompute(name, func() *Sender {
		return New(name, opts...)
	})
	return s
}

// Default returns the sender for the model named by LOOM_DEFAULT_MODEL,
// falling back to GPT4oMini when the variable is unset.
func Default() *Sender {
	if name := os.Getenv(EnvDefaultModel); name != "" {
		return Model(name)
	}
	return GPT4oMini()
}
