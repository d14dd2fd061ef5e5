package handlers

import "github.com/gin-gonic/gin"

// API bundles the handlers and registers their routes
type API struct {
	Auth      *AuthHandler
	Cases     *CaseHandler
	Sessions  *SessionHandler
	Memory    *MemoryHandler
	Rules     *RulesHandler
	Documents *DocumentHandler
	Workflow  *WorkflowHandler
	Advisor   *AdvisorHandler
}

// Register mounts all routes under /api plus the health probe
func (a *API) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// Auth routes
		api.POST("/auth/register", a.Auth.Register)
		api.POST("/auth/login", a.Auth.Login)

		// Case routes
		api.POST("/cases", a.Cases.CreateCase)
		api.GET("/cases", a.Cases.ListCases)
		api.GET("/cases/:id", a.Cases.GetCase)
		api.PATCH("/cases/:id/status", a.Cases.UpdateCaseStatus)
		api.GET("/cases/:id/generated", a.Cases.GetGeneratedContent)
		api.DELETE("/cases/:id", a.Cases.DeleteCase)

		// Session routes
		api.GET("/cases/:id/sessions", a.Sessions.ListSessions)
		api.GET("/cases/:id/sessions/active", a.Sessions.GetActiveSession)
		api.POST("/cases/:id/sessions/cleanup", a.Sessions.CleanupSessions)
		api.PATCH("/sessions/:id/status", a.Sessions.UpdateSessionStatus)
		api.GET("/sessions/:id/summary", a.Sessions.GetSessionSummary)
		api.GET("/sessions/:id/blocks", a.Memory.ListSessionBlocks)

		// Memory block routes
		api.POST("/memory/blocks", a.Memory.CreateBlock)
		api.GET("/memory/blocks/:id", a.Memory.GetBlock)
		api.PUT("/memory/blocks/:id", a.Memory.UpdateBlock)
		api.DELETE("/memory/blocks/:id", a.Memory.DeleteBlock)
		api.POST("/memory/blocks/:id/links", a.Memory.LinkBlocks)
		api.GET("/memory/blocks/:id/related", a.Memory.GetRelatedBlocks)
		api.POST("/memory/search", a.Memory.SearchMemory)
		api.GET("/cases/:id/context", a.Memory.GetCaseContext)

		// Rule retrieval routes
		api.POST("/rules/search", a.Rules.SearchRules)
		api.POST("/rules/hybrid-search", a.Rules.HybridSearch)
		api.GET("/rules/jurisdiction", a.Rules.GetJurisdictionRules)
		api.GET("/rules/procedures", a.Rules.GetProcedureRules)
		api.POST("/rules/initialize", a.Rules.InitializeRules)

		// Document routes
		api.POST("/cases/:id/documents", a.Documents.UploadDocument)
		api.GET("/cases/:id/documents", a.Documents.ListDocuments)
		api.GET("/documents/:id", a.Documents.GetDocument)
		api.GET("/documents/:id/download", a.Documents.DownloadDocument)
		api.PUT("/documents/:id/text", a.Documents.SetExtractedText)
		api.DELETE("/documents/:id", a.Documents.DeleteDocument)

		// Workflow routes
		api.POST("/cases/:id/workflow/start", a.Workflow.StartWorkflow)
		api.POST("/cases/:id/workflow/agents/:agent", a.Workflow.RunSingleAgent)
		api.GET("/cases/:id/workflow/status", a.Workflow.GetWorkflowStatus)
		api.GET("/cases/:id/workflow/runs", a.Workflow.ListRuns)
		api.GET("/cases/:id/workflow/ws", a.Workflow.SubscribeWorkflow)

		// Advisor routes
		api.POST("/cases/:id/advisor/message", a.Advisor.PostMessage)
		api.GET("/cases/:id/advisor/history", a.Advisor.GetHistory)
		api.DELETE("/cases/:id/advisor/history", a.Advisor.ClearHistory)
		api.GET("/cases/:id/advisor/suggestions", a.Advisor.GetSuggestions)
	}
}
