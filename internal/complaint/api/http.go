package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/resolveit/platform/internal/complaint/engine"
	"github.com/resolveit/platform/internal/shared/auth"
	"github.com/resolveit/platform/internal/shared/errors"
	"github.com/resolveit/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the complaint module
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new complaint handler
func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

// Routes registers the complaint routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	// Anyone may file anonymously, no account needed
	r.Post("/anonymous", h.CreateAnonymous)
	r.Get("/{complaintID}/timeline", h.Timeline)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRoles(auth.RoleUser, auth.RoleAdmin))
		r.Post("/", h.Create)
		r.Get("/my", h.My)
	})

	r.Route("/admin", func(r chi.Router) {
		r.With(auth.RequireRoles(auth.RoleAdmin)).Get("/all", h.All)
		r.With(auth.RequireRoles(auth.RoleAdmin)).Get("/filter", h.Filter)
		r.With(auth.RequireRoles(auth.RoleAdmin)).Get("/{complaintID}", h.GetByID)
		r.With(auth.RequireRoles(auth.RoleAdmin, auth.RoleOfficer)).Put("/{complaintID}", h.Update)
		r.With(auth.RequireRoles(auth.RoleAdmin, auth.RoleOfficer)).Patch("/{complaintID}/status", h.SetStatus)
	})

	return r
}

// --- Request types ---

// UpdateComplaintRequest is the staff update payload
type UpdateComplaintRequest struct {
	Status            string  `json:"status,omitempty"`
	AssignedToUserID  *string `json:"assignedToUserId,omitempty"`
	EscalatedToUserID *string `json:"escalatedToUserId,omitempty"`
	Comment           string  `json:"comment"`
	InternalNote      bool    `json:"internalNote"`
}

// SetStatusRequest is the status-only payload
type SetStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

func (h *Handler) CreateAnonymous(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseSubmitForm(r)
	if err != nil {
		writeError(w, err)
		return
	}
	req.Anonymous = true
	req.SubmitterID = nil

	c, err := h.engine.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewComplaintResponse(c))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseSubmitForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if user := auth.GetUser(r.Context()); user != nil && !req.Anonymous {
		id := user.ID
		req.SubmitterID = &id
	}

	c, err := h.engine.Submit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewComplaintResponse(c))
}

func (h *Handler) My(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	complaints, err := h.engine.GetMine(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewComplaintResponses(complaints))
}

func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.engine.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewComplaintResponses(complaints))
}

func (h *Handler) Filter(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.engine.Filter(r.Context(),
		r.URL.Query().Get("status"),
		r.URL.Query().Get("category"),
		r.URL.Query().Get("urgency"),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewComplaintResponses(complaints))
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid complaint ID"))
		return
	}

	c, err := h.engine.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewComplaintResponse(c))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid complaint ID"))
		return
	}

	var body UpdateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	user := auth.GetUser(r.Context())
	req := engine.UpdateRequest{
		Status:       body.Status,
		Comment:      body.Comment,
		InternalNote: body.InternalNote,
		ActorID:      user.ID,
	}

	if body.AssignedToUserID != nil {
		assignedID, err := types.ParseID(*body.AssignedToUserID)
		if err != nil {
			writeError(w, errors.BadRequest("invalid assigned user ID"))
			return
		}
		req.AssignedToID = &assignedID
	}

	if body.EscalatedToUserID != nil {
		escalatedID, err := types.ParseID(*body.EscalatedToUserID)
		if err != nil {
			writeError(w, errors.BadRequest("invalid escalated user ID"))
			return
		}
		req.EscalatedToID = &escalatedID
	}

	c, err := h.engine.ApplyUpdate(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewComplaintResponse(c))
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid complaint ID"))
		return
	}

	var body SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := h.engine.SetStatus(r.Context(), id, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewComplaintResponse(c))
}

func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "complaintID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid complaint ID"))
		return
	}

	// Internal notes are staff-only regardless of what was requested
	includeInternal, _ := strconv.ParseBool(r.URL.Query().Get("includeInternal"))
	user := auth.GetUser(r.Context())
	if user == nil || !user.IsStaff() {
		includeInternal = false
	}

	entries, err := h.engine.GetTimeline(r.Context(), id, includeInternal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewTimelineResponses(entries))
}

// parseSubmitForm reads a multipart submission with an optional file
func (h *Handler) parseSubmitForm(r *http.Request) (engine.SubmitRequest, error) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		return engine.SubmitRequest{}, errors.BadRequest("invalid multipart form")
	}

	anonymous, _ := strconv.ParseBool(r.FormValue("anonymous"))
	req := engine.SubmitRequest{
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Urgency:     r.FormValue("urgency"),
		Anonymous:   anonymous,
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return engine.SubmitRequest{}, errors.BadRequest("failed to read attachment")
		}
		req.Attachment = &engine.Upload{Data: data, OriginalName: header.Filename}
	}

	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		writeJSON(w, appErr.HTTPStatus, appErr)
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
