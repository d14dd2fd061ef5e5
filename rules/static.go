// Package rules provides the Minnesota Conciliation Court rule corpus and
// hybrid retrieval over it: keyword lookup on the static statute text plus
// semantic search over embedded rules.
package rules

import (
	"strings"

	"caseassist-backend/models"
)

// StaticRule is one entry of the built-in Minnesota Conciliation Court
// corpus (MN Stat. Ch. 491A).
type StaticRule struct {
	ID       string                 `json:"id"`
	Category string                 `json:"category"`
	Source   string                 `json:"source"`
	Title    string                 `json:"title"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// categoryOrder fixes iteration order over the corpus
var categoryOrder = []string{"jurisdiction", "procedures", "appeals", "judgments", "fees", "representation"}

// categoryRuleTypes maps corpus categories to stored rule types
var categoryRuleTypes = map[string]models.RuleType{
	"procedures": models.RuleTypeProcedure,
}

const defaultStatuteSource = "MN Stat. Ch. 491A"

var statuteReferences = map[string]string{
	"jurisdiction_monetary_general":             "MN Stat. § 491A.01",
	"jurisdiction_monetary_consumer":            "MN Stat. § 491A.01",
	"jurisdiction_excluded_real_estate":         "MN Stat. § 491A.02",
	"jurisdiction_excluded_defamation":          "MN Stat. § 491A.02",
	"jurisdiction_excluded_class":               "MN Stat. § 491A.02",
	"jurisdiction_excluded_injunction":          "MN Stat. § 491A.02",
	"jurisdiction_excluded_eviction":            "MN Stat. § 491A.02",
	"jurisdiction_excluded_medical_malpractice": "MN Stat. § 491A.02",
	"procedure_filing":                          "MN Stat. § 491A.03",
	"procedure_service":                         "MN Stat. § 491A.04",
	"procedure_hearing":                         "MN Stat. § 491A.05",
	"procedure_informal":                        "MN Stat. § 491A.05",
	"procedure_no_jury":                         "MN Stat. § 491A.01",
	"procedure_court_admin":                     "MN Stat. § 491A.03",
	"appeal_right":                              "MN Stat. § 491A.06",
	"appeal_de_novo":                            "MN Stat. § 491A.06",
	"appeal_deadline":                           "MN Stat. § 491A.06",
	"judgment_payment_plan":                     "MN Stat. § 491A.07",
	"judgment_enforcement":                      "MN Stat. § 491A.07",
	"judgment_interest":                         "MN Stat. § 491A.07",
	"fees_filing":                               "MN Stat. § 491A.03",
	"fees_waiver":                               "MN Stat. § 491A.03",
	"fees_service":                              "MN Stat. § 491A.04",
	"rep_self":                                  "MN Stat. § 491A.05",
	"rep_corporate":                             "MN Stat. § 491A.05",
	"rep_attorney":                              "MN Stat. § 491A.05",
}

type rawRule struct {
	id       string
	title    string
	content  string
	metadata map[string]interface{}
}

var conciliationRules = map[string][]rawRule{
	"jurisdiction": {
		{
			id:       "jurisdiction_monetary_general",
			title:    "Monetary limit - general",
			content:  "Conciliation court has jurisdiction over claims for money not exceeding $20,000.",
			metadata: map[string]interface{}{"monetary_limit": 20000, "jurisdiction_type": "general"},
		},
		{
			id:       "jurisdiction_monetary_consumer",
			title:    "Monetary limit - consumer credit",
			content:  "In consumer credit transactions, the jurisdictional limit is $4,000.",
			metadata: map[string]interface{}{"monetary_limit": 4000, "jurisdiction_type": "consumer_credit"},
		},
		{
			id:       "jurisdiction_excluded_real_estate",
			title:    "Excluded - real estate",
			content:  "Conciliation court does not have jurisdiction over actions involving title to real property.",
			metadata: map[string]interface{}{"excluded": true},
		},
		{
			id:       "jurisdiction_excluded_defamation",
			title:    "Excluded - defamation",
			content:  "Actions for libel, slander, or defamation are excluded from conciliation court.",
			metadata: map[string]interface{}{"excluded": true},
		},
		{
			id:       "jurisdiction_excluded_class",
			title:    "Excluded - class actions",
			content:  "Class actions may not be brought in conciliation court.",
			metadata: map[string]interface{}{"excluded": true},
		},
		{
			id:       "jurisdiction_excluded_injunction",
			title:    "Excluded - injunctions",
			content:  "Conciliation court may not grant injunctive relief.",
			metadata: map[string]interface{}{"excluded": true},
		},
		{
			id:       "jurisdiction_excluded_eviction",
			title:    "Excluded - evictions",
			content:  "Eviction actions are not within conciliation court jurisdiction.",
			metadata: map[string]interface{}{"excluded": true},
		},
		{
			id:       "jurisdiction_excluded_medical_malpractice",
			title:    "Excluded - medical malpractice",
			content:  "Medical malpractice claims are excluded from conciliation court.",
			metadata: map[string]interface{}{"excluded": true},
		},
	},
	"procedures": {
		{
			id:       "procedure_filing",
			title:    "Filing requirements",
			content:  "A claim is commenced by filing a statement of claim with the court administrator. The claim must state the nature and amount of the claim and the names of the parties.",
			metadata: map[string]interface{}{"procedure_type": "filing"},
		},
		{
			id:       "procedure_service",
			title:    "Service of process",
			content:  "The defendant must be served with a copy of the statement of claim and notice of hearing. Service may be made by mail, personal service, or as provided by rule.",
			metadata: map[string]interface{}{"procedure_type": "service"},
		},
		{
			id:       "procedure_hearing",
			title:    "Hearing procedures",
			content:  "Hearings are conducted in an informal manner. The court may allow testimony and evidence without strict adherence to formal rules of evidence.",
			metadata: map[string]interface{}{"procedure_type": "hearing"},
		},
		{
			id:       "procedure_informal",
			title:    "Informal process",
			content:  "Conciliation court proceedings are designed to be informal and accessible to self-represented parties. Technical legal rules are relaxed.",
			metadata: map[string]interface{}{"procedure_type": "informal"},
		},
		{
			id:       "procedure_no_jury",
			title:    "No jury trials",
			content:  "There is no right to a jury trial in conciliation court. The conciliation court judge decides the case.",
			metadata: map[string]interface{}{"procedure_type": "trial"},
		},
		{
			id:       "procedure_court_admin",
			title:    "Court administrator assistance",
			content:  "The court administrator may provide procedural assistance and forms but cannot give legal advice.",
			metadata: map[string]interface{}{"procedure_type": "assistance"},
		},
	},
	"appeals": {
		{
			id:       "appeal_right",
			title:    "Right to appeal",
			content:  "Either party may appeal a conciliation court decision. The appeal is a trial de novo in district court.",
			metadata: map[string]interface{}{"appeal_type": "de_novo"},
		},
		{
			id:       "appeal_de_novo",
			title:    "Trial de novo in district court",
			content:  "On appeal, the case is tried again in district court as if the conciliation court decision had not occurred. New evidence may be presented.",
			metadata: map[string]interface{}{"appeal_type": "de_novo"},
		},
		{
			id:       "appeal_deadline",
			title:    "Appeal deadlines",
			content:  "A party must file a notice of appeal within the time period set by statute, typically within a specified number of days after entry of judgment.",
			metadata: map[string]interface{}{"appeal_type": "deadline"},
		},
	},
	"judgments": {
		{
			id:       "judgment_payment_plan",
			title:    "Payment plans",
			content:  "The court may order the defendant to pay the judgment in installments. Payment plans generally may not exceed one year without court approval.",
			metadata: map[string]interface{}{"max_installment_period_years": 1},
		},
		{
			id:       "judgment_enforcement",
			title:    "Enforcement procedures",
			content:  "Judgments may be enforced through garnishment, execution, and other collection procedures as provided by law.",
			metadata: map[string]interface{}{},
		},
		{
			id:       "judgment_interest",
			title:    "Judgment interest rates",
			content:  "Interest on judgments accrues at the rate prescribed by Minnesota statute for civil judgments.",
			metadata: map[string]interface{}{},
		},
	},
	"fees": {
		{
			id:       "fees_filing",
			title:    "Filing fees",
			content:  "A filing fee is required to commence a claim in conciliation court. The amount is set by statute and may vary by county.",
			metadata: map[string]interface{}{},
		},
		{
			id:       "fees_waiver",
			title:    "Fee waiver procedures",
			content:  "A party who cannot afford the filing fee may apply for a waiver. The court will consider the party's financial situation.",
			metadata: map[string]interface{}{},
		},
		{
			id:       "fees_service",
			title:    "Service fees",
			content:  "Costs of service of process may be recoverable by the prevailing party in certain circumstances.",
			metadata: map[string]interface{}{},
		},
	},
	"representation": {
		{
			id:       "rep_self",
			title:    "Self-representation allowed",
			content:  "Parties may represent themselves in conciliation court. No attorney is required.",
			metadata: map[string]interface{}{},
		},
		{
			id:       "rep_corporate",
			title:    "Corporate representation",
			content:  "A corporation may be represented by an officer, director, or employee in conciliation court in certain circumstances, or by an attorney.",
			metadata: map[string]interface{}{},
		},
		{
			id:       "rep_attorney",
			title:    "Attorney representation optional",
			content:  "Parties may choose to be represented by an attorney but are not required to do so.",
			metadata: map[string]interface{}{},
		},
	},
}

func (r rawRule) toStatic(category string) StaticRule {
	source, ok := statuteReferences[r.id]
	if !ok {
		source = defaultStatuteSource
	}
	meta := make(map[string]interface{}, len(r.metadata))
	for k, v := range r.metadata {
		meta[k] = v
	}
	return StaticRule{
		ID:       r.id,
		Category: category,
		Source:   source,
		Title:    r.title,
		Content:  r.content,
		Metadata: meta,
	}
}

// GetStaticRule retrieves one static rule by ID
func GetStaticRule(id string) (StaticRule, bool) {
	for _, category := range categoryOrder {
		for _, r := range conciliationRules[category] {
			if r.id == id {
				return r.toStatic(category), true
			}
		}
	}
	return StaticRule{}, false
}

// RulesByCategory retrieves all static rules in a category
func RulesByCategory(category string) []StaticRule {
	raws, ok := conciliationRules[category]
	if !ok {
		return nil
	}
	out := make([]StaticRule, 0, len(raws))
	for _, r := range raws {
		out = append(out, r.toStatic(category))
	}
	return out
}

// AllStaticRules returns the full corpus in category order
func AllStaticRules() []StaticRule {
	var out []StaticRule
	for _, category := range categoryOrder {
		for _, r := range conciliationRules[category] {
			out = append(out, r.toStatic(category))
		}
	}
	return out
}

// SearchStatic performs a case-insensitive substring search over rule IDs,
// titles, and content. An empty query matches nothing.
func SearchStatic(query string) []StaticRule {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []StaticRule
	for _, category := range categoryOrder {
		for _, r := range conciliationRules[category] {
			haystack := strings.ToLower(r.id + " " + r.title + " " + r.content)
			if strings.Contains(haystack, query) {
				out = append(out, r.toStatic(category))
			}
		}
	}
	return out
}

// ruleTypeForCategory maps a corpus category to the rule type it is stored
// under. Procedures get their own type so procedural lookups work directly.
func ruleTypeForCategory(category string) models.RuleType {
	if rt, ok := categoryRuleTypes[category]; ok {
		return rt
	}
	return models.RuleTypeStatute
}
