package router

import (
	"github.com/travisim/Farmify-sub001/internal/handler"
	"github.com/travisim/Farmify-sub001/internal/logic"

	"github.com/gin-gonic/gin"
)

// Setup wires the HTTP routes onto the logic layer.
func Setup(funding *logic.FundingLogic, settlements *logic.SettlementLogic,
	distribution *logic.DistributionLogic) *gin.Engine {

	r := gin.Default()

	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "farmify-funding-service",
		})
	})

	v1 := r.Group("/api/v1")
	{
		projectHandler := handler.NewProjectHandler(funding)
		investmentHandler := handler.NewInvestmentHandler(funding)
		settlementHandler := handler.NewSettlementHandler(settlements, distribution)

		projects := v1.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.GET("/:id/stats", projectHandler.GetProjectStats)
			projects.GET("/:id/investments", projectHandler.GetProjectInvestments)
			projects.POST("/:id/investments", investmentHandler.Invest)
			projects.POST("/:id/investments/record", investmentHandler.RecordInvestment)

			projects.GET("/:id/settlement", settlementHandler.GetSettlement)
			projects.POST("/:id/settlement", settlementHandler.SubmitRevenueProof)
			projects.POST("/:id/settlement/verify", settlementHandler.VerifySettlement)
			projects.POST("/:id/settlement/distribute", settlementHandler.Distribute)
			projects.GET("/:id/settlement/distributions", settlementHandler.GetDistributions)
		}
	}

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
