package entity

import "github.com/shopspring/decimal"

// Estados de un producto en el catálogo.
const (
	ProductAvailable = "disponible"
	ProductSoldOut   = "agotado"
)

// Product cilindro o accesorio del catálogo. Stock nunca negativo; Category referencia
// la categoría por nombre.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"nombre"`
	Category      string          `json:"categoria"`
	Description   string          `json:"descripcion"`
	Price         decimal.Decimal `json:"precio"`
	Stock         int             `json:"stock"`
	CriticalStock int             `json:"stockCritico"`
	Image         string          `json:"imagen"`
	Status        string          `json:"estado"`
}

// GetID implementa la identidad usada por el almacén de registros.
func (p Product) GetID() int64 { return p.ID }

// IsCritical stock en o bajo el umbral crítico (solo informativo).
func (p *Product) IsCritical() bool { return p.Stock <= p.CriticalStock }

// SyncStatus recalcula Status a partir del stock.
func (p *Product) SyncStatus() {
	if p.Stock > 0 {
		p.Status = ProductAvailable
	} else {
		p.Status = ProductSoldOut
	}
}
