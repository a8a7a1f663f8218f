package inventory

import "github.com/mytheresa/go-warehouse/models"

// Availability is the derived sellability of a product.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityLimited     Availability = "limited"
	AvailabilityUnavailable Availability = "unavailable"
)

// ClassifyProduct derives availability from the worst component. The
// compositions must have their Article loaded; a composition whose article
// no longer exists cannot be satisfied and makes the product unavailable.
// A product without compositions is always available.
func ClassifyProduct(compositions []models.Composition) Availability {
	limited := false
	for _, c := range compositions {
		if c.Article == nil {
			return AvailabilityUnavailable
		}
		status := ClassifyArticle(*c.Article)
		if status == StatusOut || c.Article.Quantity < c.RequiredQuantity {
			return AvailabilityUnavailable
		}
		if status == StatusLow || status == StatusCritical {
			limited = true
		}
	}
	if limited {
		return AvailabilityLimited
	}
	return AvailabilityAvailable
}

type ProductWithAvailability struct {
	models.Product
	Availability Availability
}

func WithAvailability(p models.Product) ProductWithAvailability {
	return ProductWithAvailability{Product: p, Availability: ClassifyProduct(p.Compositions)}
}
