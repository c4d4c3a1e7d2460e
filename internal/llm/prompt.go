package llm

import (
	"fmt"
	"strings"
)

const summarySystemPrompt = `You summarize academic papers for a card-based reading app. ` +
	`Write three short paragraphs in plain text: the problem the paper addresses, ` +
	`the approach, and the key findings. No headings, no bullet points, no markdown. ` +
	`Keep the whole summary under 150 words.`

const questionSystemPrompt = `You answer questions about a specific academic paper. ` +
	`Base your answer only on the provided paper content. If the paper does not ` +
	`contain the answer, say so plainly. Answer in plain text without markdown.`

// BuildSummaryPrompt returns the system and user prompts for a summary
// request. When a PDF is attached the user prompt tells the model to
// prefer the full text over the abstract.
func BuildSummaryPrompt(req SummaryRequest) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\n", req.Title)
	if len(req.PDF) > 0 {
		b.WriteString("The full paper is attached. Summarize it based on the full text.\n")
	} else {
		fmt.Fprintf(&b, "Abstract:\n%s\n\nSummarize the paper based on this abstract.\n", req.Abstract)
	}
	return summarySystemPrompt, b.String()
}

// BuildQuestionPrompt returns the system and user prompts for a question
// request.
func BuildQuestionPrompt(req QuestionRequest) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n\n", req.Title)
	if len(req.PDF) > 0 {
		b.WriteString("The full paper is attached.\n\n")
	} else if req.Abstract != "" {
		fmt.Fprintf(&b, "Abstract:\n%s\n\n", req.Abstract)
	}
	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	return questionSystemPrompt, b.String()
}
