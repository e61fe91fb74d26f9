package llm

// errorResponse is the error envelope returned by the completion API.
// Only the message is interesting; it ends up in a warn log, never in the
// reply to the user.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
