// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/AleutianInsights/services/insights/agents"
	"github.com/AleutianAI/AleutianInsights/services/insights/handlers"
)

// calculateRateLimit bounds the calculation endpoints; expression
// evaluation is cheap but an open endpoint still deserves a ceiling.
const (
	calculateRateLimit = rate.Limit(50)
	calculateRateBurst = 100
)

// rateLimitMiddleware rejects requests over the shared limiter with
// 429.
func rateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// SetupRoutes registers every insights endpoint on the router.
func SetupRoutes(router *gin.Engine, pipeline *agents.InsightPipeline) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := rate.NewLimiter(calculateRateLimit, calculateRateBurst)

	v1 := router.Group("/v1")
	{
		v1.POST("/ask", handlers.HandleAsk(pipeline))

		calcGroup := v1.Group("/calc", rateLimitMiddleware(limiter))
		{
			calcGroup.POST("/evaluate", handlers.HandleEvaluate())
			calcGroup.POST("/steps", handlers.HandleCalculate())
		}
	}
}
