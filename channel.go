package warp

import (
	"bufio"
	"io"
)

// A Channel serializes and deserializes Object graphs on a stream. The
// three constructors differ only in encoding; whatever one channel kind
// writes, a channel of the same kind restores with an identical class name
// and an identical Show dump.
//
// A channel owns its reader state, so a single channel instance must not be
// shared between concurrent readers or writers. The channel itself is never
// persisted.
type Channel struct {
	rw    io.ReadWriter
	codec codec
	log   Logger
}

// codec turns dump trees into bytes and back. decode is bound to the
// channel's reader so consecutive objects on one stream can be read in
// sequence.
type codec interface {
	name() string
	encode(w io.Writer, n *dumpNode) error
	decode() (*dumpNode, error)
}

// ChannelOption configures a channel.
type ChannelOption interface {
	apply(*channelConfig)
}

type channelConfig struct {
	log Logger
}

type channelOptionFunc func(*channelConfig)

func (f channelOptionFunc) apply(cfg *channelConfig) { f(cfg) }

// WithLogger directs the channel's diagnostics to l.
func WithLogger(l Logger) ChannelOption {
	return channelOptionFunc(func(cfg *channelConfig) { cfg.log = l })
}

func newChannel(rw io.ReadWriter, c codec, opts []ChannelOption) *Channel {
	cfg := channelConfig{log: NopLogger()}
	for _, opt := range opts {
		opt.apply(&cfg)
	}
	return &Channel{rw: rw, codec: c, log: cfg.log}
}

// NewChannel returns a channel using the native textual encoding, which is
// the same grammar Show prints.
func NewChannel(rw io.ReadWriter, opts ...ChannelOption) *Channel {
	return newChannel(rw, &nativeCodec{br: bufio.NewReader(rw)}, opts)
}

// Write serializes the full object graph of obj onto the stream.
func (c *Channel) Write(obj Object) error {
	n := encodeObject(obj)
	if err := c.codec.encode(c.rw, n); err != nil {
		return err
	}
	c.log.Debugf("wrote %s object (%s encoding)", obj.ClassName(), c.codec.name())
	return nil
}

// Read reconstructs the next object graph from the stream. The new object
// is freshly built: its identity and reference count are its own, but its
// class name and Show dump match what was written.
func (c *Channel) Read() (Object, error) {
	n, err := c.codec.decode()
	if err != nil {
		return nil, err
	}
	obj, err := buildObject(n)
	if err != nil {
		return nil, err
	}
	c.log.Debugf("read %s object (%s encoding)", obj.ClassName(), c.codec.name())
	return obj, nil
}

type nativeCodec struct {
	br *bufio.Reader
}

func (*nativeCodec) name() string { return "native" }

func (*nativeCodec) encode(w io.Writer, n *dumpNode) error {
	if _, err := io.WriteString(w, renderDump(n)); err != nil {
		return &SerializationError{Format: "native", Reason: "write failed: " + err.Error()}
	}
	return nil
}

func (c *nativeCodec) decode() (*dumpNode, error) {
	return parseDump(c.br)
}
