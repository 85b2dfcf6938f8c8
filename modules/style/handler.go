package style

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"poppiconni-pipeline-server/modules/common/errs"
	"poppiconni-pipeline-server/modules/common/model"
	"poppiconni-pipeline-server/modules/common/storage"
	"poppiconni-pipeline-server/modules/common/utils"
)

// Handler - 스타일 라이브러리 HTTP Handler
type Handler struct {
	repo    *Repository
	storage *storage.Client
}

// NewHandler - Handler 생성
func NewHandler(repo *Repository, storageClient *storage.Client) *Handler {
	return &Handler{
		repo:    repo,
		storage: storageClient,
	}
}

// CreateStyleRequest - 스타일 등록 요청
type CreateStyleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateStyleResponse - 스타일 등록 응답
type CreateStyleResponse struct {
	Success bool                     `json:"success"`
	Error   string                   `json:"error,omitempty"`
	Style   *model.StyleLibraryEntry `json:"style,omitempty"`
}

// AttachReferenceRequest - 레퍼런스 이미지 첨부 요청
type AttachReferenceRequest struct {
	ImageData string `json:"imageData"`
}

// ListStylesResponse - 스타일 목록 응답
type ListStylesResponse struct {
	Success bool                      `json:"success"`
	Styles  []model.StyleLibraryEntry `json:"styles"`
	Limit   int                       `json:"limit"`
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/styles", h.HandleCreate).Methods("POST", "OPTIONS")
	r.HandleFunc("/styles", h.HandleList).Methods("GET", "OPTIONS")
	r.HandleFunc("/styles/{styleId}/reference", h.HandleAttachReference).Methods("POST", "OPTIONS")
	r.HandleFunc("/styles/{styleId}", h.HandleDelete).Methods("DELETE", "OPTIONS")
	log.Println("✅ Style routes registered: /styles")
}

func setCORSHeaders(w http.ResponseWriter, methods string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// HandleCreate - POST /styles
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w, "POST, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req CreateStyleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ [Style] Invalid request: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: "Invalid request body"})
		return
	}

	entry, err := h.repo.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		if errs.IsQuotaExceeded(err) {
			log.Printf("⚠️ [Style] Library full (limit: %d)", h.repo.Limit())
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: err.Error()})
			return
		}
		log.Printf("❌ [Style] Create failed: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: err.Error()})
		return
	}

	log.Printf("✅ [Style] Created: %s (%s)", entry.StyleName, entry.StyleID)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateStyleResponse{Success: true, Style: entry})
}

// HandleAttachReference - POST /styles/{styleId}/reference
func (h *Handler) HandleAttachReference(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w, "POST, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	vars := mux.Vars(r)
	styleID := vars["styleId"]

	var req AttachReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: "Invalid request body"})
		return
	}

	if req.ImageData == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: "imageData is required"})
		return
	}

	imageBytes, err := utils.DecodeBase64Image(req.ImageData)
	if err != nil {
		log.Printf("❌ [Style] Invalid reference image: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: "Invalid image data"})
		return
	}

	referencePath := storage.StyleReferencePath(styleID)
	if err := h.storage.Upload(r.Context(), referencePath, imageBytes, "image/png"); err != nil {
		log.Printf("❌ [Style] Reference upload failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: "Failed to store reference image"})
		return
	}

	entry, err := h.repo.AttachReference(r.Context(), styleID, referencePath)
	if err != nil {
		if errs.IsNotFound(err) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: err.Error()})
			return
		}
		log.Printf("❌ [Style] Attach reference failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: err.Error()})
		return
	}

	log.Printf("✅ [Style] Reference attached: %s → %s", styleID, referencePath)

	json.NewEncoder(w).Encode(CreateStyleResponse{Success: true, Style: entry})
}

// HandleDelete - DELETE /styles/{styleId}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w, "DELETE, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	vars := mux.Vars(r)
	styleID := vars["styleId"]

	if err := h.repo.Delete(r.Context(), styleID); err != nil {
		if errs.IsNotFound(err) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: err.Error()})
			return
		}
		log.Printf("❌ [Style] Delete failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: err.Error()})
		return
	}

	log.Printf("🗑️ [Style] Deleted: %s", styleID)

	json.NewEncoder(w).Encode(CreateStyleResponse{Success: true})
}

// HandleList - GET /styles
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w, "GET, OPTIONS")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	styles, err := h.repo.List(r.Context())
	if err != nil {
		log.Printf("❌ [Style] List failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(CreateStyleResponse{Success: false, Error: err.Error()})
		return
	}

	if styles == nil {
		styles = []model.StyleLibraryEntry{}
	}

	json.NewEncoder(w).Encode(ListStylesResponse{
		Success: true,
		Styles:  styles,
		Limit:   h.repo.Limit(),
	})
}
