package pipeline

import (
	"fmt"

	"github.com/dvloznov/fraud-analyzer/internal/fraud"
	"github.com/dvloznov/fraud-analyzer/internal/llm"
)

const narrativeSystemPrompt = "You are a financial fraud analyst. Answer in plain text, " +
	"concisely, and ground your answer in AML and KYC practice."

// buildNarrativePrompt builds the analysis request for one detection.
func buildNarrativePrompt(accountID string, d fraud.Detection) llm.Prompt {
	user := fmt.Sprintf("Analyze the following financial fraud pattern:\n\n"+
		"Pattern: %s\n"+
		"Severity Level: %s\n"+
		"Number of Occurrences: %d\n"+
		"Account: %s\n\n"+
		"Based on your knowledge of financial fraud detection and AML regulations:\n"+
		"1. What are the key risk indicators?\n"+
		"2. What regulatory requirements apply?\n"+
		"3. What immediate actions should be taken?\n"+
		"4. What is the recommended investigation approach?\n\n"+
		"Provide a concise, actionable analysis.",
		d.Pattern, d.Severity, d.Count, accountID)

	return llm.Prompt{
		System:      narrativeSystemPrompt,
		User:        user,
		Temperature: NarrativeTemperature,
	}
}
