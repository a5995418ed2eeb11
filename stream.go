package warp

import "bytes"

// StringStream is an in memory stream with a sink side for writing and a
// source side for reading. Bytes written to the sink become readable only
// after SinkToSource, which models storing an object and loading it back
// without a real I/O medium.
//
// The zero value is ready to use. A StringStream is not safe for concurrent
// use; channels assume a single reader and writer.
type StringStream struct {
	sink   bytes.Buffer
	source bytes.Buffer
}

// NewStringStream returns an empty stream.
func NewStringStream() *StringStream {
	return &StringStream{}
}

// Write appends p to the sink side.
func (s *StringStream) Write(p []byte) (int, error) {
	return s.sink.Write(p)
}

// Read consumes from the source side.
func (s *StringStream) Read(p []byte) (int, error) {
	return s.source.Read(p)
}

// SinkToSource makes everything written so far available for reading and
// clears the sink.
func (s *StringStream) SinkToSource() {
	s.source.Write(s.sink.Bytes())
	s.sink.Reset()
}

// SinkString returns the bytes written since the last SinkToSource, without
// consuming them.
func (s *StringStream) SinkString() string {
	return s.sink.String()
}
