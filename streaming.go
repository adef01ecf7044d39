package llmpipeline

// Chunk is a single element of a streamed reply. The stream is a finite,
// in-order, single-consumer sequence: the channel producing Chunks is
// closed when the upstream signals message_stop or fails.
type Chunk struct {
	// Text is the incremental text carried by one stream event (nil Err)
	Text string

	// Err is set on the terminal chunk when the transport failed
	// mid-stream. No further chunks follow an error chunk; the caller
	// is expected to render it rather than re-raise it.
	Err error
}
