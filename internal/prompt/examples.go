package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Example is one worked use case used as few-shot guidance for the model.
type Example struct {
	UseCase   string
	Risks     []string
	Reasoning string
}

var fewShotExamples = []Example{
	{
		UseCase: "Medical chatbot for patient triage that asks symptoms and recommends whether to see a doctor",
		Risks: []string{
			"Generating inaccurate content",
			"Hallucination",
			"Over-or-under-reliance",
			"Harmful output",
			"Data privacy rights",
			"Legal accountability",
			"Lack of explainability",
		},
		Reasoning: "Medical triage involves health decisions where accuracy is critical. Hallucinations could lead to wrong diagnoses. Users might over-rely on AI recommendations. Privacy concerns with health data.",
	},
	{
		UseCase: "AI-powered recruitment tool that screens resumes and ranks candidates",
		Risks: []string{
			"Decision bias",
			"Unfair discrimination",
			"Lack of explainability",
			"Data privacy rights",
			"Legal accountability",
			"Output bias",
			"Unrepresentative data",
		},
		Reasoning: "Recruitment decisions affect people's livelihoods. Risk of bias against protected groups. Legal requirements for fair hiring. Need to explain why candidates were ranked.",
	},
	{
		UseCase: "Customer service chatbot for handling complaints and issuing refunds",
		Risks: []string{
			"Toxic output",
			"Inappropriate reliance on output",
			"Confidential data in prompt",
			"Exposing personal information",
			"Hallucination",
			"Prompt injection",
		},
		Reasoning: "Customer-facing system that handles sensitive data. Risk of toxic responses to frustrated customers. May process payment/personal info. Could be exploited via prompt injection.",
	},
	{
		UseCase: "Internal knowledge assistant that answers employee questions about company policies",
		Risks: []string{
			"Confidential information in data",
			"Confidential data in prompt",
			"Hallucination",
			"Generating inaccurate content",
			"Lack of data transparency",
			"Groundedness",
		},
		Reasoning: "Internal tool with access to confidential policies. Risk of hallucinating policy details. Employees may rely on incorrect information for compliance decisions.",
	},
	{
		UseCase: "AI writing assistant that generates marketing copy and product descriptions",
		Risks: []string{
			"Intellectual property infringement",
			"Generating misleading content",
			"Plagiarism",
			"Toxic output",
			"Generating inaccurate content",
		},
		Reasoning: "Content generation that could inadvertently copy existing work. Marketing claims must be accurate. Risk of generating inappropriate or misleading promotional content.",
	},
}

// FewShotExamples renders the worked examples block of the identification prompt.
func FewShotExamples() string {
	builder := &strings.Builder{}
	for i, ex := range fewShotExamples {
		risks, _ := json.Marshal(ex.Risks)
		fmt.Fprintf(builder, "Example %d:\nUse Case: %s\nIdentified Risks: %s\nReasoning: %s\n", i+1, ex.UseCase, risks, ex.Reasoning)
		if i < len(fewShotExamples)-1 {
			builder.WriteString("\n")
		}
	}
	return builder.String()
}
