package pregel

// Message is a typed payload addressed to one target vertex. Messages sent
// during superstep N are queued by the runtime and delivered all-at-once at
// the start of superstep N+1; they are never visible within N.
type Message struct {
	// From is the vertex that sent this message. Empty for messages
	// injected by the caller before the first superstep.
	From VertexId

	// To is the target vertex, or End (in which case the runtime drops it).
	To VertexId

	// Payload is the message body. Its concrete type is a contract between
	// sender and receiver vertex kinds, not enforced by the runtime.
	Payload any
}

// Activate builds a signal-only message (nil payload), the common case for
// entry messages and router/fan-out targets that only need to be woken.
func Activate(from, to VertexId) Message {
	return Message{From: from, To: to}
}
