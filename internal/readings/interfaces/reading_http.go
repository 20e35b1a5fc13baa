package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"meterdesk/internal/audit"
	"meterdesk/internal/auth"
	readingsapp "meterdesk/internal/readings/application"
	readings "meterdesk/internal/readings/domain"
)

// ReadingHandler handles meter reading APIs.
type ReadingHandler struct {
	service     *readingsapp.SubmitService
	roomChecker auth.RoomTeamChecker
	auditLogger audit.Logger
	list        http.Handler
	validate    *validator.Validate
}

// NewReadingHandler constructs a handler. The list handler serves GET on the
// same path and may be nil.
func NewReadingHandler(service *readingsapp.SubmitService, roomChecker auth.RoomTeamChecker, auditLogger audit.Logger, list http.Handler) (*ReadingHandler, error) {
	if service == nil {
		return nil, errors.New("reading handler: nil service")
	}
	return &ReadingHandler{
		service:     service,
		roomChecker: roomChecker,
		auditLogger: auditLogger,
		list:        list,
		validate:    validator.New(),
	}, nil
}

// ServeHTTP handles reading routes under /api/v1/readings.
func (h *ReadingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/readings" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		if h.list == nil {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.list.ServeHTTP(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type submitRequest struct {
	RoomID           string  `json:"room_id" validate:"required"`
	RoomNumber       string  `json:"room_number"`
	TenantName       string  `json:"tenant_name"`
	ReadingDate      string  `json:"reading_date" validate:"required"`
	Meter            string  `json:"meter" validate:"required,oneof=water electric"`
	PreviousReading  float64 `json:"previous_reading" validate:"gte=0"`
	CurrentReading   float64 `json:"current_reading" validate:"gte=0"`
	PreviousPhotoURL string  `json:"previous_photo_url" validate:"omitempty,url"`
	CurrentPhotoURL  string  `json:"current_photo_url" validate:"omitempty,url"`
}

type meterResponse struct {
	PreviousReading  float64 `json:"previous_reading"`
	CurrentReading   float64 `json:"current_reading"`
	Consumption      float64 `json:"consumption"`
	PreviousPhotoURL string  `json:"previous_photo_url,omitempty"`
	CurrentPhotoURL  string  `json:"current_photo_url,omitempty"`
}

type groupResponse struct {
	ID          string         `json:"id"`
	RoomID      string         `json:"room_id"`
	RoomNumber  string         `json:"room_number"`
	TenantName  string         `json:"tenant_name"`
	ReadingDate string         `json:"reading_date"`
	Water       *meterResponse `json:"water,omitempty"`
	Electric    *meterResponse `json:"electric,omitempty"`
	Status      string         `json:"status"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (h *ReadingHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	teamID := auth.TeamIDFromContext(r.Context())
	if teamID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if h.roomChecker != nil {
		if err := h.roomChecker.EnsureRoomTeam(r.Context(), teamID, req.RoomID); err != nil {
			respondTeamError(w, err)
			return
		}
	}

	group, err := h.service.Submit(r.Context(), readingsapp.Submission{
		TeamID:           teamID,
		RoomID:           req.RoomID,
		RoomNumber:       req.RoomNumber,
		TenantName:       req.TenantName,
		ReadingDate:      req.ReadingDate,
		Meter:            readings.MeterType(req.Meter),
		PreviousReading:  req.PreviousReading,
		CurrentReading:   req.CurrentReading,
		PreviousPhotoURL: req.PreviousPhotoURL,
		CurrentPhotoURL:  req.CurrentPhotoURL,
	})
	if err != nil {
		respondSubmitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toGroupResponse(group))
	h.logAudit(r, group, req.Meter)
}

func toGroupResponse(group *readings.ReadingGroup) groupResponse {
	return groupResponse{
		ID:          group.ID,
		RoomID:      group.RoomID,
		RoomNumber:  group.RoomNumber,
		TenantName:  group.TenantName,
		ReadingDate: readings.PeriodKey(group.ReadingDate),
		Water:       toMeterResponse(group.Water),
		Electric:    toMeterResponse(group.Electric),
		Status:      string(group.Status),
		UpdatedAt:   group.UpdatedAt,
	}
}

func toMeterResponse(reading *readings.MeterReading) *meterResponse {
	if reading == nil {
		return nil
	}
	return &meterResponse{
		PreviousReading:  reading.PreviousReading,
		CurrentReading:   reading.CurrentReading,
		Consumption:      reading.Consumption,
		PreviousPhotoURL: reading.PreviousPhotoURL,
		CurrentPhotoURL:  reading.CurrentPhotoURL,
	}
}

func (h *ReadingHandler) logAudit(r *http.Request, group *readings.ReadingGroup, meter string) {
	if h.auditLogger == nil {
		return
	}
	teamID := auth.TeamIDFromContext(r.Context())
	if teamID == "" {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"meter":        meter,
		"reading_date": readings.PeriodKey(group.ReadingDate),
		"status":       string(group.Status),
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TeamID:       teamID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "reading.submit",
		ResourceType: "reading_group",
		ResourceID:   group.ID,
		RoomID:       group.RoomID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondTeamError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrTeamMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, auth.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "room check failed", http.StatusInternalServerError)
}

func respondSubmitError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, readings.ErrInvalidReadingOrder),
		errors.Is(err, readings.ErrInvalidReadingDate),
		errors.Is(err, readings.ErrInvalidMeterType),
		errors.Is(err, readings.ErrEmptyKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "submit reading error", http.StatusInternalServerError)
	}
}
