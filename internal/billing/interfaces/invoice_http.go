package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"meterdesk/internal/audit"
	"meterdesk/internal/auth"
	billingapp "meterdesk/internal/billing/application"
	billing "meterdesk/internal/billing/domain"
	"meterdesk/internal/observability/metrics"
	readings "meterdesk/internal/readings/domain"
)

// InvoiceHandler handles invoice APIs.
type InvoiceHandler struct {
	service     *billingapp.InvoiceService
	auditLogger audit.Logger
	list        http.Handler
	exportCfg   ExportConfig
	validate    *validator.Validate
}

// NewInvoiceHandler constructs a handler. The list handler serves GET on the
// collection path and may be nil.
func NewInvoiceHandler(service *billingapp.InvoiceService, auditLogger audit.Logger, list http.Handler, exportCfg ExportConfig) (*InvoiceHandler, error) {
	if service == nil {
		return nil, errors.New("invoice handler: nil service")
	}
	return &InvoiceHandler{
		service:     service,
		auditLogger: auditLogger,
		list:        list,
		exportCfg:   exportCfg,
		validate:    validator.New(),
	}, nil
}

// ServeHTTP handles invoice routes under /api/v1/invoices.
func (h *InvoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/invoices/generate" && r.Method == http.MethodPost {
		h.handleGenerate(w, r)
		return
	}
	if path == "/api/v1/invoices" && r.Method == http.MethodGet {
		if h.list == nil {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.list.ServeHTTP(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/invoices/") {
		rest := strings.TrimPrefix(path, "/api/v1/invoices/")
		h.handleByID(w, r, rest)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type generateRequest struct {
	ReadingGroupID string `json:"reading_group_id" validate:"required"`
}

func (h *InvoiceHandler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
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

	invoice, created, err := h.service.Generate(r.Context(), teamID, req.ReadingGroupID)
	if err != nil && invoice == nil {
		respondGenerateError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if created {
		w.WriteHeader(http.StatusCreated)
	}
	body := map[string]any{
		"invoice":           invoice,
		"already_generated": !created,
	}
	if err != nil {
		// The invoice exists but the reading group could not be marked
		// billed; the caller gets the invoice and the inconsistency.
		body["warning"] = err.Error()
	}
	_ = json.NewEncoder(w).Encode(body)
	if created {
		h.logAudit(r, invoice, "invoice.generate", map[string]any{
			"reading_group_id": invoice.ReadingGroupID,
			"invoice_number":   invoice.InvoiceNumber,
			"total":            invoice.Total,
		})
	}
}

func (h *InvoiceHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, id)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "pay":
			if r.Method == http.MethodPost {
				h.handlePay(w, r, id)
				return
			}
		case "export.pdf":
			if r.Method == http.MethodGet {
				h.handleExportPDF(w, r, id)
				return
			}
		case "export.xlsx":
			if r.Method == http.MethodGet {
				h.handleExportXLSX(w, r, id)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *InvoiceHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	invoice, err := h.service.Get(r.Context(), auth.TeamIDFromContext(r.Context()), id)
	if err != nil {
		respondGenerateError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(invoice)
}

func (h *InvoiceHandler) handlePay(w http.ResponseWriter, r *http.Request, id string) {
	invoice, err := h.service.MarkPaid(r.Context(), auth.TeamIDFromContext(r.Context()), id)
	if err != nil {
		respondGenerateError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"invoice_id": invoice.ID,
		"status":     invoice.Status,
		"paid_date":  invoice.PaidDate,
	})
	h.logAudit(r, invoice, "invoice.pay", map[string]any{
		"invoice_number": invoice.InvoiceNumber,
	})
}

func (h *InvoiceHandler) handleExportPDF(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveInvoiceExport("pdf", result, time.Since(start))
	}()

	invoice, err := h.service.Get(r.Context(), auth.TeamIDFromContext(r.Context()), id)
	if err != nil {
		result = metrics.ResultError
		respondGenerateError(w, err)
		return
	}
	data, err := BuildInvoicePDF(invoice, h.exportCfg)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, invoice, "invoice.export", map[string]any{"format": "pdf"})
}

func (h *InvoiceHandler) handleExportXLSX(w http.ResponseWriter, r *http.Request, id string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveInvoiceExport("xlsx", result, time.Since(start))
	}()

	invoice, err := h.service.Get(r.Context(), auth.TeamIDFromContext(r.Context()), id)
	if err != nil {
		result = metrics.ResultError
		respondGenerateError(w, err)
		return
	}
	data, err := BuildInvoiceXLSX(invoice, h.exportCfg)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, invoice, "invoice.export", map[string]any{"format": "xlsx"})
}

func (h *InvoiceHandler) logAudit(r *http.Request, invoice *billing.Invoice, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	teamID := auth.TeamIDFromContext(r.Context())
	if teamID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TeamID:       teamID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "invoice",
		ResourceID:   invoice.ID,
		RoomID:       invoice.RoomID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

// respondGenerateError maps billing failures to statuses the caller can act
// on: invalid input, already done, and not-configured are distinguishable.
func respondGenerateError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, readings.ErrNotFound), errors.Is(err, billing.ErrInvoiceNotFound), errors.Is(err, billing.ErrRoomNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, billing.ErrMissingElectricReading), errors.Is(err, billing.ErrMissingWaterReading):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, billing.ErrSettingsNotConfigured):
		http.Error(w, err.Error(), http.StatusPreconditionFailed)
	default:
		http.Error(w, "invoice operation error", http.StatusInternalServerError)
	}
}
