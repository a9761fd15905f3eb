package vm

// Frame is the caller context saved by Call and Invoke.
type Frame struct {
	Buffers Buffers
	// Origin is the program counter execution resumes at.
	Origin int
}

// Stack is the call stack shared by a contract and everything it invokes.
type Stack struct {
	frames []Frame
}

// Push saves a deep copy of buffers together with the return program counter.
func (s *Stack) Push(buffers Buffers, origin int) {
	s.frames = append(s.frames, Frame{Buffers: buffers.Clone(), Origin: origin})
}

// Pop removes the most recent frame. Popping an empty stack is fatal.
func (s *Stack) Pop() (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, Fatalf("return with empty call stack")
	}
	frame := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return frame, nil
}

// Truncate drops every frame above depth.
func (s *Stack) Truncate(depth int) {
	if depth < len(s.frames) {
		s.frames = s.frames[:depth]
	}
}

func (s *Stack) Len() int {
	return len(s.frames)
}
