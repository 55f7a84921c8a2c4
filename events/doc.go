// Package events defines the engine's observable event stream: every message
// the runner forwards, every control transfer it services, and how each run
// ends. Events are consumed in process through the Hook interface and cross
// process through brokers, using a tagged JSON encoding that is stable for
// consumers in other languages.
//
// The encoding writes a "type" discriminator first and the payload fields
// after it, so a consumer can route on a single field without decoding the
// whole document. FromJSON is the matching router on the Go side.
package events
