package flow

import "errors"

// JumpSignal aborts the current render cascade and asks the runner to
// restart the conversation at the template named by Target. Nothing below
// the runner catches it; frames are released as it unwinds.
type JumpSignal struct {
	Target string
}

func (s JumpSignal) Error() string { return "jump to template " + s.Target }

// BreakSignal exits the nearest enclosing Sequence or Loop. A break that
// reaches the runner had no enclosing container, which is a configuration
// error.
type BreakSignal struct{}

func (s BreakSignal) Error() string { return "break out of the enclosing container" }

// TerminateSignal ends the conversation. Only the runner catches it.
type TerminateSignal struct{}

func (s TerminateSignal) Error() string { return "terminate the conversation" }

// AsJump returns the jump signal carried by err, if any.
func AsJump(err error) (JumpSignal, bool) {
	var sig JumpSignal
	ok := errors.As(err, &sig)
	return sig, ok
}

// IsBreak reports whether err carries a break signal.
func IsBreak(err error) bool {
	return errors.As(err, &BreakSignal{})
}

// IsTerminate reports whether err carries a terminate signal.
func IsTerminate(err error) bool {
	return errors.As(err, &TerminateSignal{})
}

// IsSignal reports whether err is any control transfer signal rather than a
// real failure.
func IsSignal(err error) bool {
	if _, ok := AsJump(err); ok {
		return true
	}
	return IsBreak(err) || IsTerminate(err)
}
