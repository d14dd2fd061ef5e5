package handlers

import (
	"net/http"

	"caseassist-backend/models"
	"caseassist-backend/rules"

	"github.com/gin-gonic/gin"
)

// RulesHandler handles HTTP requests for legal rule retrieval
type RulesHandler struct {
	retriever *rules.Retriever
}

func NewRulesHandler(retriever *rules.Retriever) *RulesHandler {
	return &RulesHandler{retriever: retriever}
}

type SearchRulesRequest struct {
	Query         string   `json:"query" binding:"required"`
	RuleTypes     []string `json:"rule_types"`
	Limit         int      `json:"limit"`
	MinSimilarity float64  `json:"min_similarity"`
}

// SearchRules handles POST /api/rules/search
func (h *RulesHandler) SearchRules(c *gin.Context) {
	var req SearchRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	ruleTypes, ok := parseRuleTypes(req.RuleTypes)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_RULE_TYPE", "Unknown rule type in rule_types filter")
		return
	}

	results, err := h.retriever.SearchRules(c.Request.Context(), req.Query, ruleTypes, req.Limit, req.MinSimilarity)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SEARCH_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, results)
}

type HybridSearchRequest struct {
	Query          string `json:"query" binding:"required"`
	IncludeStatic  *bool  `json:"include_static"`
	IncludeCaseLaw *bool  `json:"include_case_law"`
	Limit          int    `json:"limit"`
}

// HybridSearch handles POST /api/rules/hybrid-search
func (h *RulesHandler) HybridSearch(c *gin.Context) {
	var req HybridSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	includeStatic := req.IncludeStatic == nil || *req.IncludeStatic
	includeCaseLaw := req.IncludeCaseLaw == nil || *req.IncludeCaseLaw

	result, err := h.retriever.HybridSearch(c.Request.Context(), req.Query, includeStatic, includeCaseLaw, req.Limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "SEARCH_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, result)
}

// GetJurisdictionRules handles GET /api/rules/jurisdiction
func (h *RulesHandler) GetJurisdictionRules(c *gin.Context) {
	out, err := h.retriever.JurisdictionRules(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, out)
}

// GetProcedureRules handles GET /api/rules/procedures?type=filing
func (h *RulesHandler) GetProcedureRules(c *gin.Context) {
	out, err := h.retriever.ProcedureRules(c.Request.Context(), c.Query("type"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, out)
}

// InitializeRules handles POST /api/rules/initialize
func (h *RulesHandler) InitializeRules(c *gin.Context) {
	loaded, err := h.retriever.InitializeStaticRules(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "INITIALIZE_FAILED", err.Error())
		return
	}
	respondData(c, http.StatusOK, gin.H{"rules_loaded": loaded})
}

func parseRuleTypes(raw []string) ([]models.RuleType, bool) {
	out := make([]models.RuleType, 0, len(raw))
	for _, r := range raw {
		switch rt := models.RuleType(r); rt {
		case models.RuleTypeStatute, models.RuleTypeProcedure, models.RuleTypeCaseLaw, models.RuleTypeInterpretation:
			out = append(out, rt)
		default:
			return nil, false
		}
	}
	return out, true
}
