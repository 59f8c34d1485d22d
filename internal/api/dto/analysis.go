package dto

type AnalysisRequest struct {
	Language string `json:"language"`
	Timezone string `json:"timezone"`
	Force    bool   `json:"force"`
}
