package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"ai-risk-pipeline/internal/catalog"
)

const (
	// Description budgets keep the catalog excerpt inside the model context window.
	identifyDescriptionBudget = 200
	searchDescriptionBudget   = 150

	// SearchCatalogCap bounds how many catalog entries the search prompt lists.
	SearchCatalogCap = 500
)

// IdentifySystem is the system instruction for the identification flow.
const IdentifySystem = "You are an AI risk expert. Return ONLY a valid JSON array of risk names. No explanations, no markdown, just the JSON array."

// SearchSystem is the system instruction for the semantic search flow.
const SearchSystem = "You are an AI risk expert. Return ONLY valid JSON arrays. No explanations, no markdown."

// CatalogExcerpt renders risks as numbered "name: truncated-description" lines.
// A non-positive maxEntries leaves the slice unbounded.
func CatalogExcerpt(risks []catalog.Risk, maxEntries int) string {
	if maxEntries > 0 && len(risks) > maxEntries {
		risks = risks[:maxEntries]
	}
	builder := &strings.Builder{}
	for i, r := range risks {
		fmt.Fprintf(builder, "%d. %s: %s...\n", i+1, r.Name, truncate(r.Description, identifyDescriptionBudget))
	}
	return strings.TrimRight(builder.String(), "\n")
}

// Identification assembles the full risk-identification prompt from the
// catalog excerpt, the few-shot examples, and the use-case description.
func Identification(catalogExcerpt, useCaseDescription string) string {
	return fmt.Sprintf(`You are an expert AI risk analyst specializing in identifying potential risks for AI systems.

Your task is to analyze a given AI use case and identify the most relevant risks from the provided risk catalog.

## Risk Catalog
The following is a comprehensive catalog of AI risks. Study each risk carefully:

%s

## Examples
Here are some examples of how to identify risks for different use cases:

%s

## Instructions
1. Carefully read the use case description
2. Consider what type of AI system is being built (GenAI, agentic, ML, etc.)
3. Think about the data being processed (personal, confidential, public)
4. Consider the stakeholders and potential impacts
5. Identify 5-15 of the MOST relevant risks from the catalog above
6. Only return risk names that EXACTLY match the catalog

## Use Case to Analyze
%s

## Your Response
Return a JSON array of risk names that are most relevant to this use case.
Only include risks from the catalog above. Be specific and selective - choose the risks that are most applicable.

Return ONLY a JSON array of strings, like: ["Risk name 1", "Risk name 2", ...]`, catalogExcerpt, FewShotExamples(), useCaseDescription)
}

// Search assembles the semantic search prompt. The catalog is hard-capped at
// SearchCatalogCap entries and rendered as "index. [id] name: description" lines.
func Search(query string, risks []catalog.Risk, limit int) string {
	if len(risks) > SearchCatalogCap {
		risks = risks[:SearchCatalogCap]
	}
	lines := &strings.Builder{}
	for i, r := range risks {
		fmt.Fprintf(lines, "%d. [%s] %s: %s\n", i+1, r.ID, r.Name, truncate(r.Description, searchDescriptionBudget))
	}

	return fmt.Sprintf(`You are an AI risk expert. Given the following search query, find the most relevant AI risks from the catalog below.

## Search Query
%q

## Risk Catalog
%s

## Instructions
1. Analyze the search query to understand what the user is looking for
2. Find risks that are semantically related to the query (not just keyword matching)
3. Consider synonyms, related concepts, and broader/narrower terms
4. Return the TOP %d most relevant risks

## Response Format
Return a JSON array of objects with risk ID and relevance score (0-100):
[{"id": "risk-id-here", "score": 95}, ...]

Only return the JSON array, nothing else.`, query, strings.TrimRight(lines.String(), "\n"), limit)
}

// truncate cuts text to at most budget bytes without splitting a rune.
func truncate(text string, budget int) string {
	if len(text) <= budget {
		return text
	}
	for budget > 0 && !utf8.RuneStart(text[budget]) {
		budget--
	}
	return text[:budget]
}
