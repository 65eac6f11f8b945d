package entity

// Category agrupa productos. Los productos la referencian por Name.
type Category struct {
	ID           int64  `json:"id"`
	Name         string `json:"nombre"`
	Description  string `json:"descripcion"`
	ProductCount int    `json:"productos"`
}

// GetID implementa la identidad usada por el almacén de registros.
func (c Category) GetID() int64 { return c.ID }
