package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/database"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

// StateHandler persists per-device UI snapshots (draft input, active
// session, speech toggle) so a conversation can continue on another device.
type StateHandler struct {
	cfg *config.Config
}

func NewStateHandler(cfg *config.Config) *StateHandler {
	return &StateHandler{cfg: cfg}
}

type saveStateRequest struct {
	DeviceTag       string         `json:"device_tag" binding:"required"`
	ActiveSessionID *uuid.UUID     `json:"active_session_id"`
	Snapshot        datatypes.JSON `json:"snapshot"`
}

// Get returns the saved state for a device, or the most recently
// updated one when no device_tag is given.
func (h *StateHandler) Get(c *gin.Context) {
	query := database.DB.Order("updated_at DESC")
	if tag := c.Query("device_tag"); tag != "" {
		query = query.Where("device_tag = ?", tag)
	}

	var state models.ClientState
	if err := query.First(&state).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No saved state"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// Save upserts the state snapshot for a device.
func (h *StateHandler) Save(c *gin.Context) {
	var req saveStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Snapshot == nil {
		req.Snapshot = datatypes.JSON(`{}`)
	}

	state := models.ClientState{
		DeviceTag:       req.DeviceTag,
		ActiveSessionID: req.ActiveSessionID,
		Snapshot:        req.Snapshot,
	}
	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_tag"}},
		DoUpdates: clause.AssignmentColumns([]string{"active_session_id", "snapshot", "updated_at"}),
	}).Create(&state).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save state"})
		return
	}

	// On the conflict path the in-memory struct keeps its pre-insert id;
	// re-read so the response always matches the stored row.
	var saved models.ClientState
	if err := database.DB.Where("device_tag = ?", req.DeviceTag).First(&saved).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save state"})
		return
	}

	c.JSON(http.StatusOK, saved)
}
