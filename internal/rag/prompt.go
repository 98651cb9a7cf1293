package rag

import (
	"fmt"
	"strings"
)

// SystemPrompt restricts the model to the retrieved context.
const SystemPrompt = "You are a teaching assistant for a class. Answer the student's question using only the information in the provided context. " +
	"If the context does not contain the answer, say that you don't know. Answer in the language of the question and keep it concise."

// BuildContext numbers the blocks "[Document N]" in order and separates them with a blank line.
func BuildContext(blocks []string) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = fmt.Sprintf("[Document %d]\n%s", i+1, b)
	}
	return strings.Join(parts, "\n\n")
}

// UserPrompt embeds the context and the question in the user message.
func UserPrompt(context, question string) string {
	return "Context:\n" + context + "\n\nQuestion: " + question + "\n\nAnswer:"
}
