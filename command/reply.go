package command

// ContentType tags the payload kind of a device reply.
type ContentType uint8

const (
	// ContentText marks a complete plain-text reply.
	ContentText ContentType = iota
	// ContentChunked marks a partial reply from a byte-stream transport;
	// the controller reassembles chunks until the reply terminator is seen.
	ContentChunked
	// ContentJSON marks a structured reply from an HTTP REST device.
	ContentJSON
)

func (c ContentType) String() string {
	switch c {
	case ContentChunked:
		return "chunked"
	case ContentJSON:
		return "json"
	default:
		return "text"
	}
}

// Reply is the value object produced once per completed receive cycle and
// consumed by the decoder.
type Reply struct {
	// ContentType tags how Body should be interpreted.
	ContentType ContentType

	// Parameters carries auxiliary metadata extracted during the receive
	// cycle, such as HTTP response headers.
	Parameters map[string]string

	// Body is the raw or partially processed payload.
	Body string
}
