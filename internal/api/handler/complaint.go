package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"sulabh/backend/internal/access"
	"sulabh/backend/internal/analysis"
	"sulabh/backend/internal/apperrors"
	"sulabh/backend/internal/complaint"
	"sulabh/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// patchRequest is the body of PATCH /complaints/:id. Feedback is decoded only
// to be refused: ratings belong to the complainant.
type patchRequest struct {
	complaint.Patch
	Feedback json.RawMessage `json:"feedback"`
}

type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// trackView is the part of a complaint anyone holding its id may see.
type trackView struct {
	ID          string                   `json:"id"`
	Category    models.Category          `json:"category"`
	Subject     string                   `json:"subject"`
	Status      models.Status            `json:"status"`
	Priority    models.Priority          `json:"priority"`
	SubmittedAt time.Time                `json:"submittedAt"`
	UpdatedAt   time.Time                `json:"updatedAt"`
	ResolvedAt  *time.Time               `json:"resolvedAt,omitempty"`
	Updates     []models.ComplaintUpdate `json:"updates"`
}

func newTrackView(c *models.Complaint) trackView {
	return trackView{
		ID:          c.ID,
		Category:    c.Category,
		Subject:     c.Subject,
		Status:      c.Status,
		Priority:    c.Priority,
		SubmittedAt: c.SubmittedAt,
		UpdatedAt:   c.UpdatedAt,
		ResolvedAt:  c.ResolvedAt,
		Updates:     c.Updates,
	}
}

func (h *Handler) SubmitComplaint(c *gin.Context) {
	var req complaint.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.NewValidationError("Invalid complaint data", err))
		return
	}

	user := currentUser(c)
	id, err := h.Store.Submit(c.Request.Context(), user.ID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "complaint": h.Store.Get(id)})
}

func (h *Handler) MyComplaints(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"complaints": h.Store.ListByUser(user.ID)})
}

// GetComplaint returns the full record to its owner and to staff roles.
func (h *Handler) GetComplaint(c *gin.Context) {
	found, err := h.lookup(c, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !access.CanView(currentUser(c), found) {
		h.fail(c, apperrors.NewForbiddenError("You do not have access to this complaint"))
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.NewValidationError("Invalid feedback", err))
		return
	}

	id := c.Param("id")
	if err := h.Store.SubmitFeedback(c.Request.Context(), id, currentUser(c).ID, req.Rating, req.Comment); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Store.Get(id))
}

func (h *Handler) PatchComplaint(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.NewValidationError("Invalid complaint data", err))
		return
	}
	if len(req.Feedback) > 0 && string(req.Feedback) != "null" {
		h.fail(c, apperrors.NewForbiddenError("Only the complainant can leave feedback"))
		return
	}

	id := c.Param("id")
	if err := h.Store.Update(c.Request.Context(), id, req.Patch); err != nil {
		h.fail(c, err)
		return
	}
	updated := h.Store.Get(id)
	if updated == nil {
		h.fail(c, apperrors.NewNotFoundError("Complaint not found"))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// AddUpdate appends a timeline entry. The entry is attributed to the
// authority's department, or their name, unless the body names someone.
func (h *Handler) AddUpdate(c *gin.Context) {
	var req complaint.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.NewValidationError("Invalid status update", err))
		return
	}
	if req.UpdatedBy == "" {
		user := currentUser(c)
		req.UpdatedBy = user.Department
		if req.UpdatedBy == "" {
			req.UpdatedBy = user.FullName()
		}
	}

	entry, err := h.Store.AddStatusUpdate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// AuthorityComplaints lists complaints most urgent first, optionally
// filtered by ?status= and ?category=.
func (h *Handler) AuthorityComplaints(c *gin.Context) {
	list := filter(h.Store.List(), c)
	analysis.SortByWeight(list)
	c.JSON(http.StatusOK, gin.H{"complaints": list})
}

func (h *Handler) AdminComplaints(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"complaints": filter(h.Store.List(), c)})
}

func (h *Handler) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.Store.Statistics())
}

// TrackComplaint is the public lookup by id.
func (h *Handler) TrackComplaint(c *gin.Context) {
	found, err := h.Store.Track(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if found == nil {
		h.fail(c, apperrors.NewNotFoundError("Complaint not found"))
		return
	}
	c.JSON(http.StatusOK, newTrackView(found))
}

// lookup serves from memory and falls back to the backing storage for
// complaints submitted through another instance.
func (h *Handler) lookup(c *gin.Context, id string) (*models.Complaint, error) {
	if found := h.Store.Get(id); found != nil {
		return found, nil
	}
	found, err := h.Store.Track(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, apperrors.NewNotFoundError("Complaint not found")
	}
	return found, nil
}

func filter(list []models.Complaint, c *gin.Context) []models.Complaint {
	status := models.Status(c.Query("status"))
	category := models.Category(c.Query("category"))
	if status == "" && category == "" {
		return list
	}

	out := make([]models.Complaint, 0, len(list))
	for _, item := range list {
		if status != "" && item.Status != status {
			continue
		}
		if category != "" && item.Category != category {
			continue
		}
		out = append(out, item)
	}
	return out
}
