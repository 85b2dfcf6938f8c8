package generate

import "poppiconni-pipeline-server/modules/common/model"

// GenerateRequest - POST /generate 요청
type GenerateRequest struct {
	RequestText   string  `json:"requestText"`
	ThemeID       *string `json:"themeId,omitempty"`
	ThemeName     *string `json:"themeName,omitempty"`
	StyleID       *string `json:"styleId,omitempty"`
	StyleLock     bool    `json:"styleLock"`
	SaveToGallery bool    `json:"saveToGallery"`
}

// GenerateResponse - POST /generate 응답
type GenerateResponse struct {
	Success       bool                   `json:"success"`
	Error         string                 `json:"error,omitempty"`
	GenerationID  string                 `json:"generation_id,omitempty"`
	Status        model.GenerationStatus `json:"status,omitempty"`
	QueuePosition int64                  `json:"queuePosition,omitempty"`
}

// CancelResponse - POST /generate/{id}/cancel 응답
type CancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
