package rag

import (
	"fmt"
	"strings"
)

// NotFoundAnswer is the exact reply the model is told to give when the
// context does not contain the answer.
const NotFoundAnswer = "The answer is not available in the context."

const promptTemplate = `Answer the question as accurately as possible using the provided context. If the answer is not available in the context, say: "%s"

Context:
%s

Question:
%s

Answer:`

// BuildPrompt renders the grounding prompt for context and question.
func BuildPrompt(context, question string) string {
	return fmt.Sprintf(promptTemplate, NotFoundAnswer, context, question)
}

// FormatContext joins chunks verbatim, in retrieval order.
func FormatContext(chunks []string) string {
	return strings.Join(chunks, "\n\n")
}

// IsNotFound reports whether reply is the not-found sentinel, ignoring
// surrounding whitespace and quotes.
func IsNotFound(reply string) bool {
	return strings.Trim(strings.TrimSpace(reply), `"'`) == NotFoundAnswer
}
