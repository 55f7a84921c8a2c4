package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr with the key "error" and the error's message as
// the value.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// ByteString returns a slog.Attr for a byte slice that is known to hold
// human readable text, such as a rendered JSON payload.
func ByteString(key string, value []byte) slog.Attr {
	return slog.String(key, string(value))
}

// Stringer returns a slog.Attr with the string representation of the given
// fmt.Stringer. The value is rendered eagerly.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// Node returns a slog.Attr identifying a template node. Used by the engine
// wherever a log line concerns a single node in the flow tree.
func Node(id string) slog.Attr {
	return slog.String("node", id)
}

// Run returns a slog.Attr identifying a single conversation run.
func Run(id string) slog.Attr {
	return slog.String("run", id)
}
