package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/roomnotes/backend/middleware"
	"github.com/roomnotes/backend/utils"
)

// decodeJSON decodes the request body into dst, writing a 400 on failure.
// Returns false when the response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// pathUUID parses a UUID URL parameter, writing a 400 on failure
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid "+name, nil)
		return uuid.Nil, false
	}
	return id, true
}

// requireUserID extracts the authenticated user from the request context,
// writing a 401 when absent
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == uuid.Nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// validationDetails converts validator field errors into response details
func validationDetails(fields map[string]string) map[string]interface{} {
	if fields == nil {
		return nil
	}
	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return details
}
