package session

import "fmt"

// Frame is the bookkeeping a single template render keeps while it is on the
// stack. Concrete frame types are chosen by the template being rendered.
type Frame interface {
	// TemplateID returns the id of the template that pushed the frame.
	TemplateID() string
}

// BaseFrame is the no-state frame used by templates that only need their
// presence on the stack recorded.
type BaseFrame struct {
	Template string
}

// TemplateID implements Frame.
func (f *BaseFrame) TemplateID() string { return f.Template }

// CursorFrame tracks how far a sequence has advanced through its children.
type CursorFrame struct {
	BaseFrame
	Cursor int
}

// LoopFrame tracks loop progress as a single cumulative child counter.
// Children is fixed at frame creation; Count%Children is the child about to
// render and Count/Children the number of completed passes.
type LoopFrame struct {
	BaseFrame
	Count    int
	Children int
}

// Index returns the position of the child about to render.
func (f *LoopFrame) Index() int {
	if f.Children <= 0 {
		return 0
	}
	return f.Count % f.Children
}

// Passes returns the number of fully completed passes over the children.
func (f *LoopFrame) Passes() int {
	if f.Children <= 0 {
		return 0
	}
	return f.Count / f.Children
}

// Stack is the run's frame stack. Push returns the depth at which the frame
// was stored so the pushing template can address it later via Frame, even
// when nested renders have grown the stack above it.
type Stack struct {
	frames []Frame
}

// Push appends f and returns its depth index.
func (s *Stack) Push(f Frame) int {
	s.frames = append(s.frames, f)
	return len(s.frames) - 1
}

// Frame returns the frame stored at depth index i. Panics when i is out of
// range; frame indices are engine managed, a bad one is an engine bug.
func (s *Stack) Frame(i int) Frame {
	if i < 0 || i >= len(s.frames) {
		panic(fmt.Sprintf("session: frame index %d out of range, stack depth %d", i, len(s.frames)))
	}
	return s.frames[i]
}

// Peek returns the top frame, or nil when the stack is empty.
func (s *Stack) Peek() Frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Depth reports how many frames are on the stack.
func (s *Stack) Depth() int { return len(s.frames) }

// Empty reports whether the stack holds no frames.
func (s *Stack) Empty() bool { return len(s.frames) == 0 }

// Release pops frames until the stack is depth frames deep again. Every
// render calls this on exit with the depth it observed before pushing its
// own frame, which keeps the stack balanced on normal returns, control
// transfers and errors alike. Panics when the stack is already shallower
// than depth: a frame went missing and the engine state is corrupt.
func (s *Stack) Release(depth int) {
	if len(s.frames) < depth {
		panic(fmt.Sprintf("session: releasing to depth %d but stack only holds %d frames", depth, len(s.frames)))
	}
	s.frames = s.frames[:depth]
}

// Reset drops every frame, abandoning any in-flight renders. Signals release
// their frames as they unwind, so the engine itself never needs this.
func (s *Stack) Reset() {
	s.frames = s.frames[:0]
}
