/*
Package tool turns plain Go functions into tools a model can call during a
conversation. A definition carries the function plus the metadata a provider
needs to advertise it: name, description and a JSON schema generated from the
function's signature through reflection.

# Defining Tools

A tool is built from any function:

	func addNumbers(x, y int) int {
		return x + y
	}

	def := tool.Must(addNumbers,
		tool.Name("add_numbers"),
		tool.Description("Adds two numbers"),
		tool.Parameters("x", "y"),
	)

Parameters names the function's inputs in order; unnamed inputs keep their
positional paramN name in the schema. A parameter typed types.ContextVars is
invisible to the model and receives the state's variables at call time:

	func greet(vars types.ContextVars, name string) string {
		return fmt.Sprintf("%s, %s!", vars.GetString("greeting"), name)
	}

Functions may return a single value, or a value and an error. Returned
strings pass through verbatim, a returned types.ContextVars updates the
state's variables, and other values are rendered to text.

# Running the Call Loop

Loop is a flow template that drives the tool calling exchange: it asks the
model for a message with the tools advertised, and as long as the answer
requests tool calls it invokes them, splices the results into the transcript
as tool messages and asks again. A prose answer ends the loop.

	node := tool.NewLoop("answer").
		Use(weatherTool, clockTool).
		MaxRounds(3)

Both the model's tool call requests and the spliced results stay in the
transcript, so a later model call sees the full exchange.
*/
package tool
