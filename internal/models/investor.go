package models

import "gorm.io/gorm"

const InvestorTag = "investor"

type InvestorInterest struct {
	gorm.Model
	FullName     string  `gorm:"not null;size:200"`
	Email        string  `gorm:"not null;size:255;index"`
	Organization string  `gorm:"not null;size:200"`
	InvestorType string  `gorm:"not null;size:32"`
	Message      *string `gorm:"type:text"`
	Tag          string  `gorm:"not null;size:32;default:investor"`
}
