package contact

import (
	"strings"

	"github.com/carbiooai/carbioo-api/internal/models"
	"github.com/carbiooai/carbioo-api/pkg/validation"
)

type CreateContactMessageRequest struct {
	FirstName string `json:"firstName" binding:"required,trimmedmin=1,max=100"`
	LastName  string `json:"lastName" binding:"required,trimmedmin=1,max=100"`
	Email     string `json:"email" binding:"required,email,max=255"`
	Message   string `json:"message" binding:"required,trimmedmin=1,max=5000"`
}

type ContactMessageResponse struct {
	Message string `json:"message"`
}

func (r *CreateContactMessageRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = validation.NormalizeEmail(r.Email)
	r.Message = strings.TrimSpace(r.Message)
}

func ToContactMessageModel(req *CreateContactMessageRequest) *models.ContactMessage {
	if req == nil {
		return nil
	}
	return &models.ContactMessage{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Message:   req.Message,
	}
}
