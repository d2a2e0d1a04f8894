package model

import "time"

type Technician struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Skills    []string  `json:"skills"`
	Active    bool      `json:"active"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type TechnicianCreate struct {
	Name   string   `json:"name" validate:"required,min=2,max=100"`
	Phone  string   `json:"phone" validate:"required,phone"`
	Skills []string `json:"skills" validate:"max=20,dive,required,max=50"`
}

// TechnicianOption is the selectable form of an eligible technician.
type TechnicianOption struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Skills string `json:"skills"`
}
