package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CategoryID    uint            `gorm:"not null;index" json:"category_id"`
	SKU           string          `gorm:"column:sku;uniqueIndex;size:50;not null" json:"sku"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	IsFeatured    bool            `gorm:"not null;default:false;index" json:"is_featured"`
	Rating        float64         `gorm:"type:decimal(3,2);default:4.0" json:"rating"`
	ReviewCount   int             `gorm:"not null;default:0" json:"review_count"`
	ImageURL      string          `json:"image_url"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// CategoryName returns the preloaded category name or "".
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
