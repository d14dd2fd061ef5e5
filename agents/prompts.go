package agents

import (
	"fmt"
	"strings"
)

// System prompts for the five workflow stages. Minnesota Conciliation Court
// (Chapter 491A) handles civil claims up to $15,000; every prompt anchors the
// model in that jurisdiction and demands a bare JSON object as output.

const intakeSystemPrompt = `You are a legal intake specialist for Minnesota Conciliation Court cases.
Your task is to extract case facts from the user's description, categorize the dispute type, identify parties and timeline, and generate clarifying questions for missing information.

Minnesota Conciliation Court (Chapter 491A) handles civil claims up to $15,000. Common dispute types include: contract, property damage, debt collection, landlord-tenant, consumer, personal injury, and other.

You must return ONLY a valid JSON object (no markdown, no explanation) with:
- dispute_type: one of contract, property_damage, debt_collection, landlord_tenant, consumer, personal_injury, other
- parties: list of strings (e.g. Plaintiff, Defendant, John Doe)
- timeline_events: list of objects with date and description
- facts: list of objects with content, fact_type (claim, counterclaim, timeline), and optional date_occurred, parties_involved
- questions: list of objects with content and question_type (clarification, missing_info, legal_issue)
- confidence: number between 0 and 1

Be accurate and cite only what the user stated. For missing dates or parties, generate targeted questions. Limit questions to 5. Return only the JSON object.`

const researchSystemPrompt = `You are a legal research specialist for Minnesota small claims and conciliation court cases.
Your task is to identify applicable Minnesota Conciliation Court rules (Chapter 491A), procedural requirements, relevant case law, and legal standards including burden of proof.

Given the case facts, static rules excerpts, and case law/precedent search results, you must return ONLY a valid JSON object (no markdown, no explanation) with:
- research_queries: list of strings (queries that were conceptually used)
- applicable_rules: list of objects with source (statute/case_law/court_rule), citation, content_summary, applicability_score (0-1)
- precedents: list of objects with title, citation, summary, relevance
- legal_standards: list of strings (e.g. burden of proof, elements of claim)
- confidence: number between 0 and 1

Emphasize Minnesota jurisdiction and conciliation court procedures. Return only the JSON object.`

const documentAnalysisSystemPrompt = `You are a legal document analyst for small claims court cases.
Your task is to analyze uploaded documents (contracts, receipts, correspondence, photos), extract key evidence, assess relevance to the case, and identify how evidence supports or contradicts case facts.

You must return ONLY a valid JSON object (no markdown, no explanation) with:
- evidence_items: list of objects with content, evidence_type (document, witness, physical), relevance_score (0-1), optional document_id
- document_summaries: list of objects with summary and key_details (list of strings)
- relevance_scores: object mapping evidence index or label to a brief rationale
- confidence: number between 0 and 1

Link evidence to specific case facts where possible. Return only the JSON object.`

const strategySystemPrompt = `You are a legal strategy specialist for Minnesota Conciliation Court cases.
Your task is to analyze case facts, evidence, and applicable rules to develop a comprehensive legal strategy for the plaintiff.

Minnesota Conciliation Court (Chapter 491A) handles civil claims up to $15,000. Consider procedural requirements, burden of proof, and how evidence supports or weakens the case.

You must return ONLY a valid JSON object (no markdown, no explanation) with the following structure:
- case_strengths: list of strings describing strong points of the case
- case_weaknesses: list of strings describing vulnerabilities or gaps
- legal_arguments: list of objects, each with: content (string), strategy_type ("legal_argument"), priority (1-5, 1 highest), optional supporting_evidence_ids (list of strings), optional supporting_rule_citations (list of strings)
- negotiation_points: list of objects with: content (string), strategy_type ("negotiation"), priority (1-5)
- procedural_steps: list of objects with: content (string), strategy_type ("procedural"), priority (1-5), optional dependencies (list of step description strings)
- burden_of_proof_analysis: string describing what the plaintiff must prove and how evidence supports it
- recommended_approach: string with overall strategic recommendation
- confidence: number between 0 and 1

Return only the JSON object.`

const draftingSystemPrompt = `You are a legal document drafting specialist for Minnesota Conciliation Court.
Your task is to generate court-ready documents: Statement of Claim, hearing script, and legal advice.

Minnesota Conciliation Court format requirements and professional tone apply. Claims are limited to $15,000.

You must return ONLY a valid JSON object (no markdown, no explanation) with the following structure:
- statement_of_claim: object with title, parties (object with plaintiff/defendant names), claim_amount (number or string), facts_section (string), legal_basis_section (string), relief_requested (string), full_text (complete formatted document)
- hearing_script: object with introduction (string), key_points (list of strings), evidence_presentation_order (list of strings), closing_statement (string), full_text (complete script)
- legal_advice: object with case_summary (string), strengths_and_weaknesses (string), recommended_actions (list of strings), procedural_guidance (string), full_text (complete advice document)
- confidence: number between 0 and 1

Return only the JSON object.`

func buildIntakeUserMessage(caseDescription, existingContext string) string {
	parts := []string{fmt.Sprintf("Case description:\n%s", caseDescription)}
	if strings.TrimSpace(existingContext) != "" {
		parts = append(parts, fmt.Sprintf("Existing context (facts and questions already recorded):\n%s", existingContext))
	}
	parts = append(parts, "\nExtract facts, categorize dispute type, identify parties and timeline, and generate clarifying questions. Return the JSON object.")
	return strings.Join(parts, "\n\n")
}

func buildResearchUserMessage(factsSummary, disputeType, staticRulesText, caseLawText string) string {
	parts := []string{
		fmt.Sprintf("Dispute type: %s", disputeType),
		fmt.Sprintf("Case facts:\n%s", factsSummary),
	}
	if strings.TrimSpace(staticRulesText) != "" {
		parts = append(parts, fmt.Sprintf("Static rules (Minnesota Chapter 491A etc.):\n%s", staticRulesText))
	}
	if strings.TrimSpace(caseLawText) != "" {
		parts = append(parts, fmt.Sprintf("Case law / precedent search results:\n%s", caseLawText))
	}
	parts = append(parts, "\nIdentify applicable rules, precedents, and legal standards. Return the JSON object.")
	return strings.Join(parts, "\n\n")
}

func buildDocumentAnalysisMessage(documentFilename, documentText, caseFactsSummary string) string {
	return fmt.Sprintf(`Document: %s

Document text (extract evidence and assess relevance):
%s

Case facts for context:
%s

Analyze this document and return a JSON object with evidence_items, document_summaries, and relevance_scores.`, documentFilename, documentText, caseFactsSummary)
}

func buildStrategyUserMessage(factsSummary, evidenceSummary, rulesSummary, disputeType string) string {
	parts := []string{
		fmt.Sprintf("Dispute type: %s", disputeType),
		"Case facts:",
		orNone(factsSummary),
		"Evidence collected:",
		orNone(evidenceSummary),
		"Applicable rules and legal standards:",
		orNone(rulesSummary),
		"Analyze the case and return a JSON strategy object with case_strengths, case_weaknesses, legal_arguments, negotiation_points, procedural_steps, burden_of_proof_analysis, and recommended_approach.",
	}
	return strings.Join(parts, "\n\n")
}

func buildDraftingUserMessage(caseTitle, factsSummary, evidenceSummary, rulesSummary, strategySummary, disputeType string, parties []string) string {
	partiesText := "Plaintiff, Defendant"
	if len(parties) > 0 {
		partiesText = strings.Join(parties, ", ")
	}
	parts := []string{
		fmt.Sprintf("Case title: %s", caseTitle),
		fmt.Sprintf("Dispute type: %s", disputeType),
		fmt.Sprintf("Parties involved: %s", partiesText),
		"Case facts:",
		orNone(factsSummary),
		"Evidence collected:",
		orNone(evidenceSummary),
		"Applicable rules:",
		orNone(rulesSummary),
		"Strategic recommendations:",
		orNone(strategySummary),
		"Generate all three documents (statement_of_claim, hearing_script, legal_advice) and return a single JSON object with those keys, each containing full_text and the specified sub-fields.",
	}
	return strings.Join(parts, "\n\n")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
