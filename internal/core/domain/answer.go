package domain

// Answer is a language model response grounded in retrieved chunks.
type Answer struct {
	// Question is the question as asked.
	Question string `json:"question"`

	// Text is the generated answer. Empty when no context was found.
	Text string `json:"answer"`

	// Model is the language model that produced Text.
	Model string `json:"model,omitempty"`

	// Sources are the chunks given to the model, nearest first.
	Sources []SearchResult `json:"sources"`
}

// HasContext reports whether any chunks were retrieved for the question.
func (a Answer) HasContext() bool {
	return len(a.Sources) > 0
}
