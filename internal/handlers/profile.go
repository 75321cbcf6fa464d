package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/unimatch/authbridge/internal/middleware"
	"github.com/unimatch/authbridge/internal/models"
	"github.com/unimatch/authbridge/internal/school"
	"github.com/unimatch/authbridge/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SchoolInferrer fills in a profile's school from its email domain.
type SchoolInferrer interface {
	InferAndApply(ctx context.Context, email, profileID string) (string, error)
}

// ProfileHandler serves the signed-in user's own profile.
type ProfileHandler struct {
	profiles *services.ProfileReconciler
	schools  SchoolInferrer
}

// NewProfileHandler creates the handler. schools may be nil, which disables
// filling in a missing school on update.
func NewProfileHandler(profiles *services.ProfileReconciler, schools SchoolInferrer) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, schools: schools}
}

type profileResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Name          string  `json:"name"`
	Image         string  `json:"image"`
	School        *string `json:"school"`
	Gender        *string `json:"gender"`
	DefaultFaceID *string `json:"default_face_id"`
}

func newProfileResponse(p *models.Profile) profileResponse {
	return profileResponse{
		ID:            p.ID,
		Email:         p.Email,
		Name:          p.Name,
		Image:         p.PictureURL,
		School:        p.School,
		Gender:        p.Gender,
		DefaultFaceID: p.DefaultFaceID,
	}
}

type updateProfileRequest struct {
	Name          *string `json:"name"            binding:"omitempty,max=100"`
	Gender        *string `json:"gender"          binding:"omitempty,max=32"`
	School        *string `json:"school"          binding:"omitempty,max=200"`
	DefaultFaceID *string `json:"default_face_id" binding:"omitempty,max=128"`
}

// Me returns the current user's profile.
// GET /api/auth/me
func (h *ProfileHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No valid authorization token"})
		return
	}

	p, err := h.profiles.FindByID(c.Request.Context(), claims.ProfileID)
	if err != nil {
		h.respondLookupError(c, claims.ProfileID, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(p))
}

// UpdateMe applies a partial update to the current user's profile.
// PATCH /api/auth/me
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No valid authorization token"})
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	patch := models.ProfilePatch{
		Name:          req.Name,
		Gender:        req.Gender,
		School:        req.School,
		DefaultFaceID: req.DefaultFaceID,
	}
	if patch.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	if req.School == nil && !h.fillSchool(c, claims.ProfileID) {
		return
	}

	p, err := h.profiles.UpdateFields(c.Request.Context(), claims.ProfileID, patch)
	if err != nil {
		h.respondLookupError(c, claims.ProfileID, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(p))
}

// fillSchool infers the school for a profile that has none. Policy
// rejections end the request with 403; other inference failures are logged
// and the update goes ahead. It reports whether the caller should continue.
func (h *ProfileHandler) fillSchool(c *gin.Context, profileID string) bool {
	if h.schools == nil {
		return true
	}

	ctx := c.Request.Context()
	p, err := h.profiles.FindByID(ctx, profileID)
	if err != nil {
		h.respondLookupError(c, profileID, err)
		return false
	}
	if p.SchoolName() != "" || p.Email == "" {
		return true
	}

	_, err = h.schools.InferAndApply(ctx, p.Email, p.ID)
	switch {
	case err == nil:
		return true
	case school.IsPolicyError(err):
		c.JSON(http.StatusForbidden, gin.H{"error": school.ErrorCode(err)})
		return false
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"profile_id": profileID,
			"code":       school.ErrorCode(err),
		}).Warn("school inference failed, updating without it")
		return true
	}
}

func (h *ProfileHandler) respondLookupError(c *gin.Context, profileID string, err error) {
	if errors.Is(err, services.ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	log.WithError(err).WithField("profile_id", profileID).Error("profile lookup failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
