// Package admin serves the admin console API on a gin engine. The engine
// is mounted by the main router behind authentication, so every route here
// carries the full /api/admin prefix.
package admin

import (
	"excelytics/app"
	"excelytics/internal/errors"
	"excelytics/internal/logging"
	"excelytics/models"

	"github.com/gin-gonic/gin"
)

// BasePath is where the main router mounts the engine.
const BasePath = "/api/admin"

// Server represents the admin API
type Server struct {
	router *gin.Engine
	admin  *app.AdminService
	files  *app.FileService
}

// NewServer creates the admin engine. mode is a gin mode such as "release".
func NewServer(admin *app.AdminService, files *app.FileService, mode string) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	s := &Server{
		router: gin.New(),
		admin:  admin,
		files:  files,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the engine as an http.Handler.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.Ctx(c.Request.Context()).Error().Interface("panic", recovered).Msg("admin handler panicked")
		respondError(c, errors.InternalError("internal server error"))
	}))
	s.router.Use(requireActor())
}

func (s *Server) setupRoutes() {
	g := s.router.Group(BasePath)
	g.GET("/users", s.handleListUsers)
	g.PATCH("/users/:id", s.handleUpdateUser)
	g.DELETE("/users/:id", s.handleDeleteUser)
	g.GET("/users/:id/files", s.handleUserFiles)
	g.GET("/files/:id", s.handleGetFile)
	g.DELETE("/files/:id", s.handleDeleteFile)
	g.GET("/stats", s.handleStats)

	s.router.NoRoute(func(c *gin.Context) {
		respondError(c, errors.NotFound("route"))
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "UNKNOWN" {
		code = errors.CodeInternalError
	}
	if status >= 500 {
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("admin request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":       code,
			"message":    errors.PublicMessage(err),
			"request_id": logging.RequestID(c.Request.Context()),
		},
	})
}

func actor(c *gin.Context) models.Actor {
	a, _ := c.Get(actorKey)
	return a.(models.Actor)
}
