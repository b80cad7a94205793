package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bglserver/server/handlers"
)

// registerAPIRoutes регистрирует все маршруты API под /api
func (s *Server) registerAPIRoutes(router *gin.Engine) {
	resolutionHandler := handlers.NewResolutionHandler(s.engine)
	suggestionHandler := handlers.NewSuggestionHandler(s.engine)
	learningHandler := handlers.NewLearningHandler(s.engine, s.db)
	directoryHandler := handlers.NewDirectoryHandler(s.engine, s.db)
	importHandler := handlers.NewImportHandler(s.db, s.engine)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Разрешение названий
		api.POST("/resolve/supplier", resolutionHandler.HandleResolveSupplierGin)
		api.POST("/resolve/bank", resolutionHandler.HandleResolveBankGin)
		api.POST("/resolve/conflicts", resolutionHandler.HandleDetectConflictsGin)

		// Записи и пересчет
		api.GET("/records", directoryHandler.HandleListRecordsGin)
		api.GET("/records/:id", directoryHandler.HandleGetRecordGin)
		api.POST("/records/:id/recalculate", resolutionHandler.HandleRecalculateRecordGin)
		api.POST("/records/recalculate", resolutionHandler.HandleRecalculateAllGin)

		// Подсказки
		api.GET("/suggestions/:kind", suggestionHandler.HandleGetSuggestionsGin)
		api.DELETE("/suggestions/:kind", suggestionHandler.HandleClearSuggestionsGin)
		api.POST("/suggestions/:kind/selection", suggestionHandler.HandleRecordSelectionGin)

		// Обучение
		api.POST("/learning/:kind", learningHandler.HandleRecordDecisionGin)
		api.GET("/learning/:kind", learningHandler.HandleListDecisionsGin)
		api.DELETE("/learning/:kind", learningHandler.HandleDeleteDecisionGin)
		api.GET("/learning/:kind/log", learningHandler.HandleLearningLogGin)

		// Справочники
		api.GET("/directory/suppliers", directoryHandler.HandleListSuppliersGin)
		api.POST("/directory/suppliers", directoryHandler.HandleCreateSupplierGin)
		api.GET("/directory/banks", directoryHandler.HandleListBanksGin)
		api.POST("/directory/banks", directoryHandler.HandleCreateBankGin)
		api.GET("/directory/:kind/overrides", directoryHandler.HandleListOverridesGin)
		api.POST("/directory/:kind/overrides", directoryHandler.HandleSaveOverrideGin)
		api.POST("/directory/:kind/alternatives", directoryHandler.HandleConfirmAlternativeGin)

		// Импорт
		api.POST("/import/suppliers", importHandler.HandleImportSuppliersGin)
		api.POST("/import/banks", importHandler.HandleImportBanksGin)
		api.POST("/import/records", importHandler.HandleImportRecordsGin)
	}
}
