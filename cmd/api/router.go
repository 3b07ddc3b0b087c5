package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/elearning-api/internal/authz"
	"github.com/noah-isme/elearning-api/internal/handler"
	"github.com/noah-isme/elearning-api/internal/middleware"
	"github.com/noah-isme/elearning-api/pkg/config"
	"github.com/noah-isme/elearning-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/elearning-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/elearning-api/pkg/middleware/requestid"
)

type routerDeps struct {
	cfg        *config.Config
	logger     *zap.Logger
	tokens     middleware.TokenValidator
	metrics    *handler.MetricsHandler
	observer   middleware.RequestObserver
	submission *handler.SubmissionHandler
	gradebook  *handler.GradebookHandler
	profile    *handler.ProfileHandler
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.cfg.CORS))
	r.Use(middleware.Metrics(d.observer))

	r.GET("/health", d.metrics.Health)
	r.GET("/ready", d.metrics.Ready)
	r.GET("/metrics", d.metrics.Prometheus)

	api := r.Group(d.cfg.APIPrefix)
	api.Use(middleware.JWT(d.tokens))

	api.GET("/me", middleware.RequireAction(authz.ActionViewProfile), d.profile.Me)

	lessons := api.Group("/courses/:courseId/lessons/:lessonId")
	lessons.POST("/select-answers", middleware.RequireAction(authz.ActionSubmitAnswers), d.submission.SelectAnswers)
	lessons.GET("/result", middleware.RequireAction(authz.ActionViewOwnResult), d.gradebook.OwnResult)
	lessons.GET("/results", middleware.RequireAction(authz.ActionViewLessonResults), d.gradebook.LessonResults)
	lessons.GET("/results/export", middleware.RequireAction(authz.ActionExportLessonResults), d.gradebook.Export)

	return r
}
