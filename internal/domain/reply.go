package domain

// DeliveryMode selects how a PersonaReply reaches the chat.
type DeliveryMode string

const (
	DeliveryInline   DeliveryMode = "inline"
	DeliveryDocument DeliveryMode = "document"
)

// PersonaReply is the produced response for one admitted message.
type PersonaReply struct {
	Text     string
	Mode     DeliveryMode
	Fallback bool
}

// Generation is the outcome of a single language-model call.
type Generation struct {
	Text   string
	Reason string
	Err    error
}

// Generated reports a successful completion.
func Generated(text string) Generation {
	return Generation{Text: text}
}

// Failed reports a completion that produced no usable text.
func Failed(reason string, err error) Generation {
	return Generation{Reason: reason, Err: err}
}

func (g Generation) OK() bool {
	return g.Reason == "" && g.Err == nil
}
