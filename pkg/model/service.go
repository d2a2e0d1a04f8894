package model

type Service struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"`
	IsActive bool    `json:"isActive"`
}

type ServiceCreate struct {
	Title    string  `json:"title" validate:"required,min=2,max=100"`
	Category string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Price    float64 `json:"price" validate:"gt=0"`
	Duration int     `json:"duration" validate:"gt=0,max=1440"`
}

type ServiceUpdate struct {
	Title    *string  `json:"title,omitempty" validate:"omitempty,min=2,max=100"`
	Category *string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Duration *int     `json:"duration,omitempty" validate:"omitempty,gt=0,max=1440"`
}

func (u *ServiceUpdate) Empty() bool {
	return u.Title == nil && u.Category == nil && u.Price == nil && u.Duration == nil
}
