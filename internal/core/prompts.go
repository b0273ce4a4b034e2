// ABOUTME: Fixed instruction templates for document, web-summary, and memory prompts
// ABOUTME: Each builder renders a complete prompt string for the generation service
package core

import (
	"fmt"
	"strings"
)

const ragTemplate = `You are a helpful AI assistant. Use the context from PDFs to answer the question naturally.
If the answer is not in the PDFs, say "%s"

Context:
%s

Question: %s
`

const webSummaryTemplate = `You are an academic AI tutor for students.

Summarize the following web search results into a clear, concise, and student-friendly answer.

- Include the exact date of the event if available in the search results.
- If the date is not mentioned, clearly say "Date not mentioned in the sources."
- Focus only on factual updates relevant to the question.
- Avoid unnecessary disclaimers like "I do not have access to real-time information."
- Do not include hyperlinks.

Query: "%s"
Search Results:
%s
`

const memoryTemplate = `You are a helpful AI tutor.
Here is the conversation so far:

%s
Now answer the latest question:

User: %s
Assistant:`

// BuildRAGPrompt renders retrieved chunk text and the question into the document prompt
func BuildRAGPrompt(sentinel, context, question string) string {
	return fmt.Sprintf(ragTemplate, sentinel, context, question)
}

// BuildWebSummaryPrompt renders search snippets into the student-tutor summary prompt
func BuildWebSummaryPrompt(question string, snippets []string) string {
	return fmt.Sprintf(webSummaryTemplate, question, strings.Join(snippets, "\n\n"))
}

// BuildMemoryPrompt renders a conversation transcript and the latest question
func BuildMemoryPrompt(transcript, question string) string {
	return fmt.Sprintf(memoryTemplate, transcript, question)
}
