package bridge

// sequencer restores input order at the output boundary. Units of work may
// complete in any order; emit is invoked strictly in sequence-number order,
// buffering early completions until it is their turn.
type sequencer[T any] struct {
	next    uint64
	pending map[uint64]T
	emit    func(T)
}

func newSequencer[T any](emit func(T)) *sequencer[T] {
	return &sequencer[T]{
		pending: make(map[uint64]T),
		emit:    emit,
	}
}

// deliver hands over the completion for seq. The caller must serialize
// deliver calls (the session does so with a mutex).
func (s *sequencer[T]) deliver(seq uint64, v T) {
	if seq != s.next {
		s.pending[seq] = v
		return
	}

	s.emit(v)
	s.next++
	for {
		buffered, ok := s.pending[s.next]
		if !ok {
			return
		}
		delete(s.pending, s.next)
		s.emit(buffered)
		s.next++
	}
}
