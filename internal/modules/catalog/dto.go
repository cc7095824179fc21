package catalog

type CreateServiceRequest struct {
	Title       string  `json:"title" validate:"required,min=2,max=120"`
	Description string  `json:"description" validate:"max=2000"`
	Icon        string  `json:"icon" validate:"max=64"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// UpdateServiceRequest leaves nil fields unchanged.
type UpdateServiceRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=2,max=120"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Icon        *string  `json:"icon" validate:"omitempty,max=64"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
}
