package ocr

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"meterdesk/internal/observability/metrics"
)

// Handler serves meter photo recognition requests.
type Handler struct {
	recognizer Recognizer
}

// NewHandler constructs a handler.
func NewHandler(recognizer Recognizer) (*Handler, error) {
	if recognizer == nil {
		return nil, errors.New("ocr handler: nil recognizer")
	}
	return &Handler{recognizer: recognizer}, nil
}

const maxUploadBytes = 10 << 20

// ServeHTTP handles POST /api/v1/ocr/readings with a multipart "photo" field.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveOCRRecognize(result, time.Since(start))
	}()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, _, err := r.FormFile("photo")
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "photo file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	recognized, err := h.recognizer.RecognizeReading(r.Context(), file)
	if err != nil {
		result = metrics.ResultError
		if errors.Is(err, ErrNoReadingFound) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "recognize reading error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(recognized)
}
