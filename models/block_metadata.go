package models

import (
	"strconv"
)

// Metadata for each block type is a tagged variant discriminated by the
// block's type. Variants are built from the loosely-typed JSONB payload with
// coercion rather than rejection: unknown keys are dropped, invalid enum
// values fall back to a safe default. The common keys related_blocks, source,
// and tags survive normalization for every type.

var commonMetadataKeys = []string{"related_blocks", "source", "tags"}

// FactMetadata describes a fact block (claims, counterclaims, timeline)
type FactMetadata struct {
	FactType        string   `json:"fact_type,omitempty"`
	DateOccurred    string   `json:"date_occurred,omitempty"`
	PartiesInvolved []string `json:"parties_involved,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
}

// FactMetadataFromMap builds a FactMetadata, coercing invalid fact_type to "claim"
func FactMetadataFromMap(m BlockMetadata) FactMetadata {
	f := FactMetadata{
		FactType:        asString(m["fact_type"]),
		DateOccurred:    asString(m["date_occurred"]),
		PartiesInvolved: asStringSlice(m["parties_involved"]),
		ConfidenceScore: asFloatPtr(m["confidence_score"]),
	}
	if f.FactType != "" && f.FactType != "claim" && f.FactType != "counterclaim" && f.FactType != "timeline" {
		f.FactType = "claim"
	}
	return f
}

func (f FactMetadata) toMap(out BlockMetadata) {
	putString(out, "fact_type", f.FactType)
	putString(out, "date_occurred", f.DateOccurred)
	putStringSlice(out, "parties_involved", f.PartiesInvolved)
	putFloatPtr(out, "confidence_score", f.ConfidenceScore)
}

// EvidenceMetadata describes an evidence block (documents, witnesses, physical)
type EvidenceMetadata struct {
	EvidenceType       string   `json:"evidence_type,omitempty"`
	DocumentID         string   `json:"document_id,omitempty"`
	RelevanceScore     *float64 `json:"relevance_score,omitempty"`
	RelevanceRationale string   `json:"relevance_rationale,omitempty"`
	IsDocumentSummary  bool     `json:"is_document_summary,omitempty"`
	KeyDetails         []string `json:"key_details,omitempty"`
}

// EvidenceMetadataFromMap builds an EvidenceMetadata, coercing invalid
// evidence_type to "document"
func EvidenceMetadataFromMap(m BlockMetadata) EvidenceMetadata {
	e := EvidenceMetadata{
		EvidenceType:       asString(m["evidence_type"]),
		DocumentID:         asString(m["document_id"]),
		RelevanceScore:     asFloatPtr(m["relevance_score"]),
		RelevanceRationale: asString(m["relevance_rationale"]),
		IsDocumentSummary:  asBool(m["is_document_summary"]),
		KeyDetails:         asStringSlice(m["key_details"]),
	}
	if e.EvidenceType != "" && e.EvidenceType != "document" && e.EvidenceType != "witness" && e.EvidenceType != "physical" {
		e.EvidenceType = "document"
	}
	return e
}

func (e EvidenceMetadata) toMap(out BlockMetadata) {
	putString(out, "evidence_type", e.EvidenceType)
	putString(out, "document_id", e.DocumentID)
	putFloatPtr(out, "relevance_score", e.RelevanceScore)
	putString(out, "relevance_rationale", e.RelevanceRationale)
	if e.IsDocumentSummary {
		out["is_document_summary"] = true
	}
	putStringSlice(out, "key_details", e.KeyDetails)
}

// RuleMetadata describes a rule block (statutes, case law, court rules)
type RuleMetadata struct {
	RuleSource         string   `json:"rule_source,omitempty"`
	Citation           string   `json:"citation,omitempty"`
	Jurisdiction       string   `json:"jurisdiction,omitempty"`
	ApplicabilityScore *float64 `json:"applicability_score,omitempty"`
}

// RuleMetadataFromMap builds a RuleMetadata, coercing invalid rule_source to "statute"
func RuleMetadataFromMap(m BlockMetadata) RuleMetadata {
	r := RuleMetadata{
		RuleSource:         asString(m["rule_source"]),
		Citation:           asString(m["citation"]),
		Jurisdiction:       asString(m["jurisdiction"]),
		ApplicabilityScore: asFloatPtr(m["applicability_score"]),
	}
	if r.RuleSource != "" && r.RuleSource != "statute" && r.RuleSource != "case_law" && r.RuleSource != "court_rule" {
		r.RuleSource = "statute"
	}
	return r
}

func (r RuleMetadata) toMap(out BlockMetadata) {
	putString(out, "rule_source", r.RuleSource)
	putString(out, "citation", r.Citation)
	putString(out, "jurisdiction", r.Jurisdiction)
	putFloatPtr(out, "applicability_score", r.ApplicabilityScore)
}

// QuestionMetadata describes a question block (open or answered)
type QuestionMetadata struct {
	QuestionType  string `json:"question_type,omitempty"`
	Answered      bool   `json:"answered"`
	AnswerContent string `json:"answer_content,omitempty"`
}

// QuestionMetadataFromMap builds a QuestionMetadata, coercing invalid
// question_type to "clarification"
func QuestionMetadataFromMap(m BlockMetadata) QuestionMetadata {
	q := QuestionMetadata{
		QuestionType:  asString(m["question_type"]),
		Answered:      asBool(m["answered"]),
		AnswerContent: asString(m["answer_content"]),
	}
	if q.QuestionType != "" && q.QuestionType != "clarification" && q.QuestionType != "missing_info" && q.QuestionType != "legal_issue" {
		q.QuestionType = "clarification"
	}
	return q
}

func (q QuestionMetadata) toMap(out BlockMetadata) {
	putString(out, "question_type", q.QuestionType)
	out["answered"] = q.Answered
	putString(out, "answer_content", q.AnswerContent)
}

// StrategyMetadata describes a strategy block (legal arguments, negotiation,
// procedural moves)
type StrategyMetadata struct {
	StrategyType            string   `json:"strategy_type,omitempty"`
	Priority                *int     `json:"priority,omitempty"`
	Dependencies            []string `json:"dependencies,omitempty"`
	ConfidenceScore         *float64 `json:"confidence_score,omitempty"`
	SupportingEvidenceIDs   []string `json:"supporting_evidence_ids,omitempty"`
	SupportingRuleCitations []string `json:"supporting_rule_citations,omitempty"`
}

// StrategyMetadataFromMap builds a StrategyMetadata. Invalid strategy_type
// coerces to "legal_argument", priority to int (default 1 when present but
// unparseable), dependencies to a list of strings.
func StrategyMetadataFromMap(m BlockMetadata) StrategyMetadata {
	s := StrategyMetadata{
		StrategyType:            asString(m["strategy_type"]),
		ConfidenceScore:         asFloatPtr(m["confidence_score"]),
		SupportingEvidenceIDs:   asStringSlice(m["supporting_evidence_ids"]),
		SupportingRuleCitations: asStringSlice(m["supporting_rule_citations"]),
	}
	if s.StrategyType != "" && s.StrategyType != "legal_argument" && s.StrategyType != "negotiation" && s.StrategyType != "procedural" {
		s.StrategyType = "legal_argument"
	}
	if raw, ok := m["priority"]; ok && raw != nil {
		p := asIntDefault(raw, 1)
		s.Priority = &p
	}
	if raw, ok := m["dependencies"]; ok && raw != nil {
		deps := asStringSlice(raw)
		if deps == nil {
			deps = []string{}
		}
		s.Dependencies = deps
	}
	return s
}

func (s StrategyMetadata) toMap(out BlockMetadata) {
	putString(out, "strategy_type", s.StrategyType)
	if s.Priority != nil {
		out["priority"] = *s.Priority
	}
	if s.Dependencies != nil {
		out["dependencies"] = s.Dependencies
	}
	putFloatPtr(out, "confidence_score", s.ConfidenceScore)
	putStringSlice(out, "supporting_evidence_ids", s.SupportingEvidenceIDs)
	putStringSlice(out, "supporting_rule_citations", s.SupportingRuleCitations)
}

// ValidateBlockMetadata normalizes raw metadata for the given block type by
// round-tripping it through the typed variant: unknown keys are dropped and
// invalid enum values are coerced to their defaults. Unknown block types pass
// metadata through unchanged.
func ValidateBlockMetadata(blockType BlockType, metadata BlockMetadata) BlockMetadata {
	if metadata == nil {
		return BlockMetadata{}
	}
	out := make(BlockMetadata)
	switch blockType {
	case BlockTypeFact:
		FactMetadataFromMap(metadata).toMap(out)
	case BlockTypeEvidence:
		EvidenceMetadataFromMap(metadata).toMap(out)
	case BlockTypeRule:
		RuleMetadataFromMap(metadata).toMap(out)
	case BlockTypeQuestion:
		QuestionMetadataFromMap(metadata).toMap(out)
	case BlockTypeStrategy:
		StrategyMetadataFromMap(metadata).toMap(out)
	default:
		for k, v := range metadata {
			out[k] = v
		}
		return out
	}
	for _, k := range commonMetadataKeys {
		if v, ok := metadata[k]; ok {
			out[k] = v
		}
	}
	return out
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asFloatPtr(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case float32:
		f := float64(n)
		return &f
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	}
	return nil
}

func asIntDefault(v interface{}, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

func asStringSlice(v interface{}) []string {
	switch raw := v.(type) {
	case []string:
		return raw
	case []interface{}:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func putString(out BlockMetadata, key, val string) {
	if val != "" {
		out[key] = val
	}
}

func putFloatPtr(out BlockMetadata, key string, val *float64) {
	if val != nil {
		out[key] = *val
	}
}

func putStringSlice(out BlockMetadata, key string, val []string) {
	if len(val) > 0 {
		out[key] = val
	}
}
