package investor

import (
	"strings"

	"github.com/carbiooai/carbioo-api/internal/models"
	"github.com/carbiooai/carbioo-api/pkg/validation"
)

type CreateInvestorInterestRequest struct {
	FullName     string `json:"fullName" binding:"required,trimmedmin=1,max=200"`
	Email        string `json:"email" binding:"required,email,max=255"`
	Organization string `json:"organization" binding:"required,trimmedmin=1,max=200"`
	InvestorType string `json:"investorType" binding:"required,investortype"`
	Message      string `json:"message" binding:"max=5000"`
}

type InvestorInterestResponse struct {
	Message string `json:"message"`
}

func (r *CreateInvestorInterestRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = validation.NormalizeEmail(r.Email)
	r.Organization = strings.TrimSpace(r.Organization)
	r.InvestorType = strings.TrimSpace(r.InvestorType)
	r.Message = strings.TrimSpace(r.Message)
}

func ToInvestorInterestModel(req *CreateInvestorInterestRequest) *models.InvestorInterest {
	if req == nil {
		return nil
	}

	interest := &models.InvestorInterest{
		FullName:     req.FullName,
		Email:        req.Email,
		Organization: req.Organization,
		InvestorType: req.InvestorType,
		Tag:          models.InvestorTag,
	}
	if req.Message != "" {
		message := req.Message
		interest.Message = &message
	}

	return interest
}
