// Package router wires the HTTP routes and their middleware.
package router

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"ats-agent-go/internal/api/handler"
)

// Handlers bundles everything the routes need.
type Handlers struct {
	Applicants *handler.ApplicantHandler
	Jobs       *handler.JobHandler
	Clients    *handler.ClientHandler
	Chat       *handler.ChatHandler
	Ratings    *handler.RatingHandler
	Invites    *handler.InviteHandler
	Changes    *handler.ChangesHandler
}

// Register mounts all routes under /api/v1. With apiKeys non-empty, every
// route except the health check requires a bearer key from the list.
func Register(h *server.Hertz, handlers Handlers, apiKeys string) {
	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")

	if keys := parseKeys(apiKeys); len(keys) > 0 {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return keys[key], nil
			}),
		))
	}

	api.POST("/resume/parse", handlers.Applicants.ParseResume)

	api.POST("/applicants", handlers.Applicants.Create)
	api.GET("/applicants", handlers.Applicants.List)
	api.GET("/applicants/:id", handlers.Applicants.Get)
	api.PUT("/applicants/:id", handlers.Applicants.Update)
	api.DELETE("/applicants/:id", handlers.Applicants.Delete)
	api.POST("/applicants/:id/resume", handlers.Applicants.UploadResume)
	api.GET("/applicants/:id/resume-url", handlers.Applicants.ResumeURL)
	api.POST("/applicants/:id/analyze", handlers.Applicants.Analyze)

	api.POST("/jobs", handlers.Jobs.Create)
	api.GET("/jobs", handlers.Jobs.List)
	api.GET("/jobs/:id", handlers.Jobs.Get)
	api.PUT("/jobs/:id", handlers.Jobs.Update)
	api.DELETE("/jobs/:id", handlers.Jobs.Delete)

	api.POST("/clients", handlers.Clients.Create)
	api.GET("/clients", handlers.Clients.List)
	api.GET("/clients/:id", handlers.Clients.Get)
	api.PUT("/clients/:id", handlers.Clients.Update)
	api.DELETE("/clients/:id", handlers.Clients.Delete)

	api.POST("/ratings/generate", handlers.Ratings.Generate)
	api.POST("/chat", handlers.Chat.Chat)
	api.POST("/invites", handlers.Invites.Send)
	api.GET("/changes/:collection", handlers.Changes.Stream)
}

func parseKeys(apiKeys string) map[string]bool {
	keys := make(map[string]bool)
	for _, k := range strings.Split(apiKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys[k] = true
		}
	}
	return keys
}
