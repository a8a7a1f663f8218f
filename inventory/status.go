// Package inventory derives stock status and product availability and keeps
// article quantities consistent with the order lifecycle.
package inventory

import "github.com/mytheresa/go-warehouse/models"

// StockStatus is the derived stock level of an article.
type StockStatus string

const (
	StatusAvailable StockStatus = "available"
	StatusLow       StockStatus = "low"
	StatusCritical  StockStatus = "critical"
	StatusOut       StockStatus = "out"
)

// criticalRatio is the share of the threshold at or below which stock is critical.
const criticalRatio = 0.25

// ClassifyArticle maps an article to exactly one status. Rules are checked
// in order and the first match wins, so a zero quantity is always out even
// when the threshold is zero.
func ClassifyArticle(a models.Article) StockStatus {
	switch {
	case a.Quantity <= 0:
		return StatusOut
	case float64(a.Quantity) <= float64(a.Threshold)*criticalRatio:
		return StatusCritical
	case a.Quantity <= a.Threshold:
		return StatusLow
	default:
		return StatusAvailable
	}
}

// IsLow reports whether the status calls for restocking.
func (s StockStatus) IsLow() bool {
	return s == StatusLow || s == StatusCritical || s == StatusOut
}

type ArticleWithStatus struct {
	models.Article
	Status StockStatus
}

func WithStatus(a models.Article) ArticleWithStatus {
	return ArticleWithStatus{Article: a, Status: ClassifyArticle(a)}
}

// LowStock keeps the articles classified low, critical or out.
func LowStock(articles []models.Article) []ArticleWithStatus {
	low := make([]ArticleWithStatus, 0)
	for _, a := range articles {
		if s := ClassifyArticle(a); s.IsLow() {
			low = append(low, ArticleWithStatus{Article: a, Status: s})
		}
	}
	return low
}
