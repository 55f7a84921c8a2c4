// Package natsx holds the NATS connection defaults shared by the loom
// commands and examples.
package natsx

import (
	"os"

	"github.com/nats-io/nats.go"
)

// NewClient connects to the NATS server named by the NATS_URL environment
// variable. Without options the connection identifies itself as "loom" and
// enables compression.
func NewClient(opts ...nats.Option) (*nats.Conn, error) {
	if len(opts) == 0 {
		opts = append(opts, nats.Name("loom"), nats.Compression(true))
	}
	return nats.Connect(os.Getenv("NATS_URL"), opts...)
}
