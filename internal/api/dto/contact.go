package dto

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactResponse struct {
	Success   bool `json:"success"`
	ID        uint `json:"id"`
	Delivered bool `json:"delivered"`
}
