package services

import (
	"fmt"
	"strings"

	"github.com/lenden-labs/lenden/internal/core/domain"
)

// historyAnswerLimit caps rendered answers in the history section so one
// verbose reply cannot crowd out the retrieved context.
const historyAnswerLimit = 200

// DefaultGroundingPrompt is the embedded instruction preamble used when no
// prompt store is configured. It establishes the grounding and
// refusal-on-insufficient-context rules.
const DefaultGroundingPrompt = `You are an expert Loan Assistant for Bank of Maharashtra with deep knowledge of banking products.

INSTRUCTIONS:
1. Provide accurate, specific information based ONLY on the context provided
2. Always cite specific interest rates, fees, and eligibility criteria when available
3. If information is not in the context, clearly state: "Based on available documentation, I don't have that information. Please contact the bank directly."
4. Never invent or assume numbers, rates, or terms
5. Format your response clearly with bullet points for multiple items
6. If the question relates to previous conversation, reference it naturally
7. Be professional, helpful, and concise`

// noContextNotice replaces the context section when retrieval found nothing.
const noContextNotice = `No relevant context was found for this question.
Answer conservatively from the conversation history alone, or state that
the documentation does not cover it. Do not invent information.`

// AssemblePrompt builds the grounded prompt from the instruction preamble,
// the retrieved chunks, the recent turns, and the current question.
//
// It is a pure function: identical inputs produce byte-identical output.
// It applies no global size budget - the retriever's k and the history
// window already bound the inputs, and each rendered history answer is
// capped at historyAnswerLimit runes.
func AssemblePrompt(preamble, question string, chunks []domain.RetrievedChunk, turns []domain.Turn) string {
	var sb strings.Builder

	sb.WriteString(preamble)
	sb.WriteString("\n\nCONTEXT INFORMATION:\n")
	if len(chunks) == 0 {
		sb.WriteString(noContextNotice)
		sb.WriteString("\n")
	} else {
		for i, c := range chunks {
			if i > 0 {
				sb.WriteString("\n---\n\n")
			}
			fmt.Fprintf(&sb, "Source %d (%s):\n%s\n", i+1, c.Chunk.Source, c.Chunk.Text)
		}
	}

	sb.WriteString("\nCONVERSATION HISTORY:\n")
	if len(turns) == 0 {
		sb.WriteString("No previous conversation\n")
	} else {
		for _, t := range turns {
			fmt.Fprintf(&sb, "User: %s\n", t.Question)
			fmt.Fprintf(&sb, "Assistant: %s\n", truncateAnswer(t.Answer))
		}
	}

	fmt.Fprintf(&sb, "\nCURRENT QUESTION: %s\n\nANSWER:", question)
	return sb.String()
}

// truncateAnswer caps a stored answer for history rendering.
func truncateAnswer(answer string) string {
	runes := []rune(answer)
	if len(runes) <= historyAnswerLimit {
		return answer
	}
	return string(runes[:historyAnswerLimit]) + "..."
}
