package dto

type TranslateRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

type TranslateResponse struct {
	OK          bool   `json:"ok"`
	Cached      bool   `json:"cached"`
	Translation string `json:"translation"`
}
