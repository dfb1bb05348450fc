package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/leonthanh/listening-service/internal/services"
	"github.com/leonthanh/listening-service/internal/utils"
)

type HandlerManager struct {
	testHandler       *TestHandler
	submissionHandler *SubmissionHandler
}

func NewHandlerManager(
	testService services.TestService,
	attemptService services.AttemptService,
	exportService services.ExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		testHandler:       NewTestHandler(testService, exportService, logger),
		submissionHandler: NewSubmissionHandler(attemptService, logger),
	}
}

// SetupRoutes sets up all API routes. The test-taking routes live at the
// root, matching the paths the browser client calls.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, middleware ...gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "listening-service",
		})
	})

	tests := router.Group("/listening-tests", middleware...)
	{
		tests.GET("", hm.testHandler.ListTests)
		tests.POST("", hm.testHandler.CreateTest)
		tests.GET("/:id", hm.testHandler.GetTest)
		tests.PUT("/:id", hm.testHandler.UpdateTest)
		tests.DELETE("/:id", hm.testHandler.DeleteTest)
		tests.GET("/:id/export", hm.testHandler.ExportResults)

		tests.POST("/:id/submit", hm.submissionHandler.Submit)
	}

	submissions := router.Group("/listening-submissions", middleware...)
	{
		// :id is the test id for the attempt-scoped routes and the
		// submission id for the detail route.
		submissions.POST("/:id/autosave", hm.submissionHandler.Autosave)
		submissions.GET("/:id/active", hm.submissionHandler.Active)
		submissions.POST("/:id/cleanup", hm.submissionHandler.Cleanup)
		submissions.GET("/:id", hm.submissionHandler.GetSubmission)
	}
}
