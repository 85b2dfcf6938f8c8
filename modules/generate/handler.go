package generate

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/model"
	"poppiconni-pipeline-server/modules/style"
)

// Handler - 생성 파이프라인 HTTP Handler
type Handler struct {
	records RecordStore
	styles  *style.Repository
	queue   Queue
}

// NewHandler - Handler 생성
func NewHandler(records RecordStore, styles *style.Repository, queue Queue) *Handler {
	return &Handler{
		records: records,
		styles:  styles,
		queue:   queue,
	}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/generate", h.HandleGenerate).Methods("POST", "OPTIONS")
	r.HandleFunc("/generate/{generationId}/cancel", h.HandleCancel).Methods("POST", "OPTIONS")
	r.HandleFunc("/pipeline-status/{generationId}", h.HandleStatus).Methods("GET", "OPTIONS")
	log.Println("✅ Generate routes registered: /generate, /pipeline-status")
}

// HandleGenerate - POST /generate
// requestText 누락은 400, 미존재 styleId는 404
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Generate] Invalid request: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(GenerateResponse{Success: false, Error: "Invalid request body"})
		return
	}

	req.RequestText = strings.TrimSpace(req.RequestText)
	if req.RequestText == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(GenerateResponse{Success: false, Error: "requestText is required"})
		return
	}

	// 스타일 id는 접수 시점에 동기 검증
	if req.StyleID != nil && *req.StyleID != "" {
		if _, err := h.styles.Resolve(r.Context(), *req.StyleID); err != nil {
			if errs.IsNotFound(err) {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(GenerateResponse{Success: false, Error: err.Error()})
				return
			}
			log.Printf("❌ [Generate] Style lookup failed: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(GenerateResponse{Success: false, Error: "Style lookup failed"})
			return
		}
	} else {
		req.StyleID = nil
	}

	now := time.Now()
	record := &model.GenerationRecord{
		GenerationID:  uuid.New().String(),
		RequestText:   req.RequestText,
		ThemeID:       req.ThemeID,
		ThemeName:     req.ThemeName,
		StyleID:       req.StyleID,
		StyleLock:     req.StyleLock,
		SaveToGallery: req.SaveToGallery,
		Status:        model.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.records.CreateGenerationRecord(r.Context(), record); err != nil {
		log.Printf("❌ [Generate] Failed to create record: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(GenerateResponse{Success: false, Error: "Failed to create generation record"})
		return
	}

	position, err := h.queue.Enqueue(r.Context(), record.GenerationID)
	if err != nil {
		log.Printf("❌ [Generate] Enqueue failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(GenerateResponse{Success: false, Error: "Failed to enqueue generation"})
		return
	}

	log.Printf("📥 [Generate] Accepted %s (position: %d)", record.GenerationID, position)

	json.NewEncoder(w).Encode(GenerateResponse{
		Success:       true,
		GenerationID:  record.GenerationID,
		Status:        record.Status,
		QueuePosition: position,
	})
}

// HandleStatus - GET /pipeline-status/{generationId}
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	vars := mux.Vars(r)
	generationID := vars["generationId"]

	record, err := h.records.GetGenerationRecord(r.Context(), generationID)
	if err != nil {
		if errs.IsNotFound(err) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		log.Printf("❌ [Status] Lookup failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Status lookup failed"})
		return
	}

	json.NewEncoder(w).Encode(record.Projection())
}

// HandleCancel - POST /generate/{generationId}/cancel
// pending/phase1에서만 확정 취소, 이후에는 best-effort
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	vars := mux.Vars(r)
	generationID := vars["generationId"]

	record, err := h.records.GetGenerationRecord(r.Context(), generationID)
	if err != nil {
		if errs.IsNotFound(err) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(CancelResponse{Success: false, Error: err.Error()})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(CancelResponse{Success: false, Error: "Cancel lookup failed"})
		return
	}

	if record.Status.IsTerminal() {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(CancelResponse{
			Success: false,
			Error:   "Generation already " + string(record.Status),
		})
		return
	}

	if err := h.queue.RequestCancel(generationID); err != nil {
		log.Printf("❌ [Cancel] Failed to set cancel flag: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(CancelResponse{Success: false, Error: "Failed to request cancellation"})
		return
	}

	message := "Cancellation requested"
	if record.Status != model.StatusPending && record.Status != model.StatusPhase1Prompt {
		// phase 2 이후는 공급자 호출을 중단시키지 못함
		message = "Cancellation requested (best-effort, generation already dispatched)"
	}

	log.Printf("🛑 [Cancel] %s (status: %s)", generationID, record.Status)

	json.NewEncoder(w).Encode(CancelResponse{Success: true, Message: message})
}
