package models

import "gorm.io/gorm"

type ContactMessage struct {
	gorm.Model
	FirstName string `gorm:"not null;size:100"`
	LastName  string `gorm:"not null;size:100"`
	Email     string `gorm:"not null;size:255;index"`
	Message   string `gorm:"not null;type:text"`
}
