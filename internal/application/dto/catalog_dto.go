package dto

import "github.com/shopspring/decimal"

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Name          string          `json:"nombre"`
	Category      string          `json:"categoria"`
	Description   string          `json:"descripcion"`
	Price         decimal.Decimal `json:"precio"`
	Stock         int             `json:"stock"`
	CriticalStock int             `json:"stockCritico"`
	Image         string          `json:"imagen"`
}

// UpdateProductRequest edición parcial de un producto.
type UpdateProductRequest struct {
	Name          *string          `json:"nombre"`
	Category      *string          `json:"categoria"`
	Description   *string          `json:"descripcion"`
	Price         *decimal.Decimal `json:"precio"`
	Stock         *int             `json:"stock"`
	CriticalStock *int             `json:"stockCritico"`
	Image         *string          `json:"imagen"`
}

// AddStockRequest unidades a sumar al stock.
type AddStockRequest struct {
	Quantity int `json:"cantidad"`
}

// ProductFilter filtros del catálogo.
type ProductFilter struct {
	Category string `query:"categoria"`
	Query    string `query:"q"`
}

// CreateCategoryRequest entrada para crear una categoría.
type CreateCategoryRequest struct {
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
}
