package handlers

import (
	"net/http"

	"github.com/roomnotes/backend/services/activity"
	"github.com/roomnotes/backend/utils"
	"go.uber.org/zap"
)

// SubmitActivityRequest is the payload for submitting a quiz attempt.
// Answers maps the question id (as a string) to the chosen alternative id.
type SubmitActivityRequest struct {
	UserName string            `json:"userName" validate:"required,min=1,max=100"`
	Answers  map[string]string `json:"answers" validate:"required"`
}

// ActivityHandler handles activity-related HTTP requests
type ActivityHandler struct {
	activities *activity.ActivityService
	logger     *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activities *activity.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		logger:     logger,
	}
}

// HandleGenerate handles POST /rooms/{roomId}/activities
func (h *ActivityHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	created, err := h.activities.Generate(r.Context(), roomID, userID)
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteCreated(w, created)
}

// HandleListByRoom handles GET /rooms/{roomId}/activities
func (h *ActivityHandler) HandleListByRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	roomID, ok := pathUUID(w, r, "roomId")
	if !ok {
		return
	}

	activities, err := h.activities.ListByRoom(r.Context(), roomID, userID)
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, activities)
}

// HandleGet handles GET /activities/{activityId}
func (h *ActivityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	activityID, ok := pathUUID(w, r, "activityId")
	if !ok {
		return
	}

	found, err := h.activities.Get(r.Context(), activityID, userID)
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteOK(w, found)
}

// HandleDelete handles DELETE /activities/{activityId}
func (h *ActivityHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	activityID, ok := pathUUID(w, r, "activityId")
	if !ok {
		return
	}

	if err := h.activities.Delete(r.Context(), activityID, userID); err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	utils.WriteNoContent(w)
}

// HandleSubmit handles POST /activities/{activityId}/submit
func (h *ActivityHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	activityID, ok := pathUUID(w, r, "activityId")
	if !ok {
		return
	}

	var req SubmitActivityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		_ = utils.WriteBadRequest(w, "Validation failed", validationDetails(utils.GetValidationFields(err)))
		return
	}

	resp, err := h.activities.Submit(r.Context(), &activity.SubmitRequest{
		ActivityID: activityID,
		UserName:   req.UserName,
		Answers:    req.Answers,
	})
	if err != nil {
		_ = utils.WriteDomainError(w, err)
		return
	}

	_ = utils.WriteCreated(w, resp)
}
