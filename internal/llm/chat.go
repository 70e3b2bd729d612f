package llm

import "context"

// UserMessage wraps the text a caller wants to send.
type UserMessage struct {
	Text string
}

// NewUserMessage creates a UserMessage holding text unchanged
func NewUserMessage(text string) UserMessage {
	return UserMessage{Text: text}
}

// Response is what SendMessage hands back
type Response struct {
	Text string
}

// LlmChat is a stand-in for a hosted chat client. It never contacts a
// provider; every send yields MockedLoopJSON.
type LlmChat struct {
	apiKey        string
	sessionID     string
	systemMessage string
}

// NewLlmChat stores the credential, session id and system instruction verbatim.
func NewLlmChat(apiKey, sessionID, systemMessage string) *LlmChat {
	return &LlmChat{
		apiKey:        apiKey,
		sessionID:     sessionID,
		systemMessage: systemMessage,
	}
}

func (c *LlmChat) APIKey() string        { return c.apiKey }
func (c *LlmChat) SessionID() string     { return c.sessionID }
func (c *LlmChat) SystemMessage() string { return c.systemMessage }

// WithModel accepts a provider/model pair for call chaining. The selection
// has no effect on later sends.
func (c *LlmChat) WithModel(provider, model string) *LlmChat {
	return c
}

// SendMessage returns the canned loop payload. The message, the session
// settings and ctx are ignored, and the error is always nil.
func (c *LlmChat) SendMessage(ctx context.Context, msg UserMessage) (*Response, error) {
	return &Response{Text: MockedLoopJSON}, nil
}

// SendMessageAsync is the future form of SendMessage: the returned channel
// already holds the response.
func (c *LlmChat) SendMessageAsync(ctx context.Context, msg UserMessage) <-chan *Response {
	ch := make(chan *Response, 1)
	resp, _ := c.SendMessage(ctx, msg)
	ch <- resp
	close(ch)
	return ch
}
