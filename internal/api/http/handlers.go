package apihttp

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"meterdesk/internal/auth"
)

const dateLayout = "2006-01-02"

// ReadingGroupsHandler serves reading group list queries.
type ReadingGroupsHandler struct {
	db *sql.DB
}

// NewReadingGroupsHandler constructs a ReadingGroupsHandler.
func NewReadingGroupsHandler(db *sql.DB) *ReadingGroupsHandler {
	return &ReadingGroupsHandler{db: db}
}

// ServeHTTP handles GET /api/v1/readings.
func (h *ReadingGroupsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	teamID := auth.TeamIDFromContext(r.Context())
	if teamID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	roomID := r.URL.Query().Get("room_id")
	status := r.URL.Query().Get("status")

	rows, err := queryReadingGroups(r.Context(), h.db, teamID, roomID, status)
	if err != nil {
		http.Error(w, "query reading groups error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

// InvoicesHandler serves invoice list queries.
type InvoicesHandler struct {
	db *sql.DB
}

// NewInvoicesHandler constructs an InvoicesHandler.
func NewInvoicesHandler(db *sql.DB) *InvoicesHandler {
	return &InvoicesHandler{db: db}
}

// ServeHTTP handles GET /api/v1/invoices.
func (h *InvoicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	teamID := auth.TeamIDFromContext(r.Context())
	if teamID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	status := r.URL.Query().Get("status")

	rows, err := queryInvoices(r.Context(), h.db, teamID, status)
	if err != nil {
		http.Error(w, "query invoices error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

// ExportInvoicesCSVHandler serves invoice CSV exports.
type ExportInvoicesCSVHandler struct {
	db *sql.DB
}

// NewExportInvoicesCSVHandler constructs an ExportInvoicesCSVHandler.
func NewExportInvoicesCSVHandler(db *sql.DB) *ExportInvoicesCSVHandler {
	return &ExportInvoicesCSVHandler{db: db}
}

// ServeHTTP handles GET /api/v1/exports/invoices.csv.
func (h *ExportInvoicesCSVHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.db == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	teamID := auth.TeamIDFromContext(r.Context())
	if teamID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	status := r.URL.Query().Get("status")

	rows, err := queryInvoices(r.Context(), h.db, teamID, status)
	if err != nil {
		http.Error(w, "query invoices error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"invoice_number",
		"room_number",
		"tenant_name",
		"issue_date",
		"due_date",
		"status",
		"paid_date",
		"water_amount",
		"electric_amount",
		"subtotal",
		"tax",
		"total",
		"currency",
	})
	for _, row := range rows {
		paidDate := ""
		if row.PaidDate != nil {
			paidDate = row.PaidDate.Format(dateLayout)
		}
		_ = writer.Write([]string{
			row.InvoiceNumber,
			row.RoomNumber,
			row.TenantName,
			row.IssueDate.Format(dateLayout),
			row.DueDate.Format(dateLayout),
			row.Status,
			paidDate,
			formatFloat(row.WaterAmount),
			formatFloat(row.ElectricAmount),
			formatFloat(row.Subtotal),
			formatFloat(row.Tax),
			formatFloat(row.Total),
			row.Currency,
		})
	}
	writer.Flush()
}

type readingGroupRow struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	RoomNumber  string    `json:"room_number"`
	TenantName  string    `json:"tenant_name"`
	ReadingDate time.Time `json:"reading_date"`
	HasWater    bool      `json:"has_water"`
	HasElectric bool      `json:"has_electric"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type invoiceRow struct {
	ID             string     `json:"id"`
	InvoiceNumber  string     `json:"invoice_number"`
	RoomNumber     string     `json:"room_number"`
	TenantName     string     `json:"tenant_name"`
	ReadingGroupID string     `json:"reading_group_id"`
	IssueDate      time.Time  `json:"issue_date"`
	DueDate        time.Time  `json:"due_date"`
	Status         string     `json:"status"`
	PaidDate       *time.Time `json:"paid_date"`
	WaterAmount    float64    `json:"water_amount"`
	ElectricAmount float64    `json:"electric_amount"`
	Subtotal       float64    `json:"subtotal"`
	Tax            float64    `json:"tax"`
	Total          float64    `json:"total"`
	Currency       string     `json:"currency"`
}

func queryReadingGroups(ctx context.Context, db *sql.DB, teamID, roomID, status string) ([]readingGroupRow, error) {
	query := `
SELECT
	id,
	room_id,
	room_number,
	tenant_name,
	reading_date,
	water_current IS NOT NULL,
	electric_current IS NOT NULL,
	status,
	updated_at
FROM reading_groups
WHERE team_id = $1`
	args := []any{teamID}
	if roomID != "" {
		args = append(args, roomID)
		query += " AND room_id = $" + strconv.Itoa(len(args))
	}
	if status != "" {
		args = append(args, status)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY reading_date DESC, room_number ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []readingGroupRow
	for rows.Next() {
		var row readingGroupRow
		if err := rows.Scan(
			&row.ID,
			&row.RoomID,
			&row.RoomNumber,
			&row.TenantName,
			&row.ReadingDate,
			&row.HasWater,
			&row.HasElectric,
			&row.Status,
			&row.UpdatedAt,
		); err != nil {
			return nil, err
		}
		row.ReadingDate = row.ReadingDate.UTC()
		row.UpdatedAt = row.UpdatedAt.UTC()
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func queryInvoices(ctx context.Context, db *sql.DB, teamID, status string) ([]invoiceRow, error) {
	query := `
SELECT
	id,
	invoice_number,
	room_number,
	tenant_name,
	reading_group_id,
	issue_date,
	due_date,
	status,
	paid_date,
	water_amount,
	electric_amount,
	subtotal,
	tax,
	total,
	currency
FROM invoices
WHERE team_id = $1`
	args := []any{teamID}
	if status != "" {
		args = append(args, status)
		query += " AND status = $" + strconv.Itoa(len(args))
	}
	query += " ORDER BY issue_date DESC, invoice_number DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []invoiceRow
	for rows.Next() {
		var row invoiceRow
		var paidDate sql.NullTime
		if err := rows.Scan(
			&row.ID,
			&row.InvoiceNumber,
			&row.RoomNumber,
			&row.TenantName,
			&row.ReadingGroupID,
			&row.IssueDate,
			&row.DueDate,
			&row.Status,
			&paidDate,
			&row.WaterAmount,
			&row.ElectricAmount,
			&row.Subtotal,
			&row.Tax,
			&row.Total,
			&row.Currency,
		); err != nil {
			return nil, err
		}
		row.IssueDate = row.IssueDate.UTC()
		row.DueDate = row.DueDate.UTC()
		if paidDate.Valid {
			t := paidDate.Time.UTC()
			row.PaidDate = &t
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}
