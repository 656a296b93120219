package tutor

// Responder produces a reply for a learner message.
// KeywordResponder is the built-in implementation; a real tutoring backend can
// be plugged in by implementing this interface.
type Responder interface {
	Reply(input string) Reply
}

// KeywordResponder answers with GenerateReply.
type KeywordResponder struct{}

// Reply implements Responder.
func (KeywordResponder) Reply(input string) Reply {
	return GenerateReply(input)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(input string) Reply

// Reply implements Responder.
func (f ResponderFunc) Reply(input string) Reply {
	return f(input)
}

// Ensure KeywordResponder implements Responder.
var _ Responder = KeywordResponder{}
