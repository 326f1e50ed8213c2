// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"nutrisync/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	DiaryHandler *handler.DiaryHandler
}

// router holds all the handlers that need to be registered.
type router struct {
	diaryHandler *handler.DiaryHandler
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		diaryHandler: params.DiaryHandler,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// Daily diary routes
	diaryGroup := e.Group("/api/diary")
	{
		diaryGroup.GET("/stream", r.diaryHandler.Stream)
		diaryGroup.GET("/totals", r.diaryHandler.Totals)
		diaryGroup.GET("/remaining", r.diaryHandler.Remaining)
		diaryGroup.GET("/:date", r.diaryHandler.GetDiary)
		diaryGroup.POST("/:date/meals/:meal/foods", r.diaryHandler.AddFood)
		diaryGroup.PUT("/:date/foods/:entryId", r.diaryHandler.UpdateFood)
		diaryGroup.DELETE("/:date/foods/:entryId", r.diaryHandler.RemoveFood)
		diaryGroup.POST("/:date/nutrition", r.diaryHandler.LogNutrition)
		diaryGroup.POST("/:date/water", r.diaryHandler.AddWater)
		diaryGroup.PUT("/:date/water", r.diaryHandler.SetWater)
		diaryGroup.PUT("/:date/targets", r.diaryHandler.UpdateTargets)
		diaryGroup.PUT("/:date/activity", r.diaryHandler.UpdateActivity)
	}

	// Offline queue routes
	syncGroup := e.Group("/api/sync")
	{
		syncGroup.GET("/status", r.diaryHandler.SyncStatus)
		syncGroup.GET("/pending", r.diaryHandler.SyncPending)
		syncGroup.POST("/flush", r.diaryHandler.SyncFlush)
	}
}
