package usecase

import (
	"fmt"
	"strings"
)

// TechnicalHints captures the model architecture answers from an assessment.
type TechnicalHints struct {
	ModelTypes        []string `json:"modelTypes,omitempty"`
	ModelProvider     string   `json:"modelProvider,omitempty"`
	AgentArchitecture string   `json:"agentArchitecture,omitempty"`
	AgentCapabilities []string `json:"agentCapabilities,omitempty"`
}

// BusinessHints captures the business feasibility answers.
type BusinessHints struct {
	GenAIUseCase         string   `json:"genAIUseCase,omitempty"`
	InteractionPattern   string   `json:"interactionPattern,omitempty"`
	UserInteractionModes []string `json:"userInteractionModes,omitempty"`
}

// DataHints captures the data readiness answers.
type DataHints struct {
	DataTypes         []string `json:"dataTypes,omitempty"`
	TrainingDataTypes []string `json:"trainingDataTypes,omitempty"`
}

// EthicalHints captures ethics answers relevant to agent behaviour.
type EthicalHints struct {
	PotentialHarmAreas []string `json:"potentialHarmAreas,omitempty"`
	AgentBoundaries    []string `json:"agentBoundaries,omitempty"`
}

// Input is the structured description of an AI use case supplied by the caller.
type Input struct {
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	ProblemStatement string          `json:"problemStatement,omitempty"`
	ProposedSolution string          `json:"proposedSolution,omitempty"`
	Technical        *TechnicalHints `json:"technical,omitempty"`
	Business         *BusinessHints  `json:"business,omitempty"`
	Data             *DataHints      `json:"data,omitempty"`
	Ethical          *EthicalHints   `json:"ethical,omitempty"`
}

// Describe flattens the input into a single prose block for the model prompt.
// Sections with no content are omitted entirely; the section order is fixed.
func (in Input) Describe() string {
	builder := &strings.Builder{}

	fmt.Fprintf(builder, "Use Case: %s", in.Title)
	if in.Description != "" {
		fmt.Fprintf(builder, "\nDescription: %s", in.Description)
	}
	if in.ProblemStatement != "" {
		fmt.Fprintf(builder, "\nProblem Statement: %s", in.ProblemStatement)
	}
	if in.ProposedSolution != "" {
		fmt.Fprintf(builder, "\nProposed AI Solution: %s", in.ProposedSolution)
	}

	if tech := in.Technical; tech != nil {
		var details []string
		if len(tech.ModelTypes) > 0 {
			details = append(details, "Model Types: "+strings.Join(tech.ModelTypes, ", "))
		}
		if tech.ModelProvider != "" {
			details = append(details, "Provider: "+tech.ModelProvider)
		}
		if len(tech.AgentCapabilities) > 0 {
			details = append(details, "Agent Capabilities: "+strings.Join(tech.AgentCapabilities, ", "))
		}
		if len(details) > 0 {
			fmt.Fprintf(builder, "\nTechnical Details: %s", strings.Join(details, "; "))
		}
	}

	if business := in.Business; business != nil {
		var details []string
		if business.GenAIUseCase != "" {
			details = append(details, "Use Case Type: "+business.GenAIUseCase)
		}
		if business.InteractionPattern != "" {
			details = append(details, "Interaction: "+business.InteractionPattern)
		}
		if len(details) > 0 {
			fmt.Fprintf(builder, "\nBusiness Context: %s", strings.Join(details, "; "))
		}
	}

	if in.Data != nil && len(in.Data.DataTypes) > 0 {
		fmt.Fprintf(builder, "\nData Types: %s", strings.Join(in.Data.DataTypes, ", "))
	}

	return builder.String()
}

// UseCaseType returns the declared generative use-case category, defaulting to
// the generic label when the assessment did not specify one.
func (in Input) UseCaseType() string {
	if in.Business != nil && in.Business.GenAIUseCase != "" {
		return in.Business.GenAIUseCase
	}
	return "General AI"
}

var genAIKeywords = []string{"llm", "large language", "generative", "gpt", "claude", "gemini", "multimodal", "chat"}

var genAIProviders = []string{"openai", "anthropic", "google", "meta", "huggingface", "cohere"}

// IsGenAI reports whether the use case involves generative AI. With no
// technical hints at all it defaults to true.
func (in Input) IsGenAI() bool {
	tech := in.Technical
	if tech == nil {
		return true
	}
	for _, mt := range tech.ModelTypes {
		lower := strings.ToLower(mt)
		for _, kw := range genAIKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	if tech.ModelProvider != "" {
		lower := strings.ToLower(tech.ModelProvider)
		for _, provider := range genAIProviders {
			if strings.Contains(lower, provider) {
				return true
			}
		}
	}
	return in.Business != nil && in.Business.GenAIUseCase != ""
}

// IsAgenticAI reports whether the use case involves agentic AI.
func (in Input) IsAgenticAI() bool {
	if tech := in.Technical; tech != nil {
		if strings.TrimSpace(tech.AgentArchitecture) != "" {
			return true
		}
		if len(tech.AgentCapabilities) > 0 {
			return true
		}
	}
	return in.Ethical != nil && len(in.Ethical.AgentBoundaries) > 0
}
