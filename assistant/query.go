package assistant

// Query is one inbound request. Exactly one of Text and AudioPath is set:
// voice queries arrive as a recorded file, text queries as a string.
type Query struct {
	// ID labels the request in logs. The HTTP layer fills it; when left
	// empty a fresh one is generated.
	ID string

	// Text is the typed query, used when AudioPath is empty.
	Text string

	// AudioPath points at the uploaded recording. The file only needs to
	// outlive the Respond call; cleaning it up is the caller's job.
	AudioPath string
}

// Reply is the assistant's complete answer to one query.
type Reply struct {
	// Text is what the assistant says.
	Text string

	// Audio is the spoken reply, MP3-encoded in full before any byte is
	// sent to a client.
	Audio []byte

	// Cached reports that Text came from the response cache.
	Cached bool

	// Heard is false when the could-not-hear fallback was spoken.
	Heard bool
}
