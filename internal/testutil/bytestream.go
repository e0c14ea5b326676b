package testutil

import "time"

// ByteStream reads bytes sequentially from a byte slice.
//
// Fuzz tests use it to derive a deterministic sequence of shelf operations
// from the fuzz input. Once exhausted, all reads return zero values.
type ByteStream struct {
	bytes []byte
	pos   int
}

// NewByteStream creates a stream over the given bytes.
func NewByteStream(b []byte) *ByteStream {
	return &ByteStream{bytes: b}
}

// HasMore reports whether unread bytes remain.
func (s *ByteStream) HasMore() bool {
	return s.pos < len(s.bytes)
}

// NextByte returns the next byte, or 0 if exhausted.
func (s *ByteStream) NextByte() byte {
	if s.pos >= len(s.bytes) {
		return 0
	}

	v := s.bytes[s.pos]
	s.pos++

	return v
}

// NextInt returns a value in [0, maxVal) derived from the next byte.
func (s *ByteStream) NextInt(maxVal int) int {
	if maxVal <= 0 {
		return 0
	}

	return int(s.NextByte()) % maxVal
}

// NextBool returns a boolean derived from the next byte.
func (s *ByteStream) NextBool() bool {
	return s.NextByte()&1 == 1
}

// NextPick returns one of choices, or the zero value when choices is empty.
func NextPick[T any](s *ByteStream, choices []T) T {
	var zero T
	if len(choices) == 0 {
		return zero
	}

	return choices[s.NextInt(len(choices))]
}

// NextDuration returns a duration between zero and maxHours hours, in
// quarter-hour steps.
func (s *ByteStream) NextDuration(maxHours int) time.Duration {
	if maxHours <= 0 {
		return 0
	}

	quarters := (int(s.NextByte())<<8 | int(s.NextByte())) % (maxHours*4 + 1)

	return time.Duration(quarters) * 15 * time.Minute
}
