package admin

import (
	"net/http"

	"excelytics/domain/core"
	"excelytics/internal/errors"
	"excelytics/models"

	"github.com/gin-gonic/gin"
)

func pathID(c *gin.Context, resource string) (core.ID, bool) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		respondError(c, errors.NotFound(resource))
		return "", false
	}
	return id, true
}

// handleListUsers handles GET /api/admin/users
func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.admin.ListUsers(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, users)
}

// handleUpdateUser handles PATCH /api/admin/users/:id
func (s *Server) handleUpdateUser(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}
	var update models.UserUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondError(c, errors.ValidationError("body must be {\"is_active\": bool, \"role\": \"user|admin\"}"))
		return
	}
	user, err := s.admin.UpdateUser(c.Request.Context(), actor(c), id, update)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// handleDeleteUser handles DELETE /api/admin/users/:id
func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}
	if err := s.admin.DeleteUser(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"id": id})
}

// handleUserFiles handles GET /api/admin/users/:id/files
func (s *Server) handleUserFiles(c *gin.Context) {
	id, ok := pathID(c, "user")
	if !ok {
		return
	}
	files, err := s.files.List(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, files)
}

// handleGetFile handles GET /api/admin/files/:id
func (s *Server) handleGetFile(c *gin.Context) {
	id, ok := pathID(c, "file")
	if !ok {
		return
	}
	file, err := s.files.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, file)
}

// handleDeleteFile handles DELETE /api/admin/files/:id
func (s *Server) handleDeleteFile(c *gin.Context) {
	id, ok := pathID(c, "file")
	if !ok {
		return
	}
	if err := s.files.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"id": id})
}

// handleStats handles GET /api/admin/stats
func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.admin.Stats(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, stats)
}
