package dto

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message  string        `json:"message"`
	Language string        `json:"language"`
	History  []ChatMessage `json:"history"`
}

type ChatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}
