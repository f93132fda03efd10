package model

import "strconv"

// Item is an inventory record: a material or a costume.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	LoanedTo string `json:"loanedTo"`
	Quantity *int   `json:"quantity,omitempty"`
	Category string `json:"category,omitempty"`
}

// Item statuses. Repair is only selectable for materials.
const (
	StatusStorage = "Storage"
	StatusLoaned  = "Loaned"
	StatusRepair  = "Repair"
)

// Item categories.
const (
	CategoryMaterials = "materials"
	CategoryCostumes  = "costumes"
)

// ValidStatus reports whether s is a known item status.
func ValidStatus(s string) bool {
	return s == StatusStorage || s == StatusLoaned || s == StatusRepair
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	return c == CategoryMaterials || c == CategoryCostumes
}

// FromFields builds an Item from a raw document field map, coercing values
// on read. Quantity may arrive as a JSON number (float64), an int, or a
// numeric string; anything else counts as absent.
func FromFields(id string, fields map[string]any) Item {
	item := Item{
		ID:       id,
		Name:     asString(fields["name"]),
		Status:   asString(fields["status"]),
		LoanedTo: asString(fields["loanedTo"]),
		Category: asString(fields["category"]),
	}
	if q, ok := asInt(fields["quantity"]); ok {
		item.Quantity = &q
	}
	if item.Category == "" {
		item.Category = inferCategory(item)
	}
	return item
}

// Fields returns the document field map for an item. The id is not part of
// the fields; the store owns it.
func (i Item) Fields() map[string]any {
	fields := map[string]any{
		"name":     i.Name,
		"status":   i.Status,
		"loanedTo": i.LoanedTo,
		"category": i.Category,
	}
	if i.Quantity != nil {
		fields["quantity"] = *i.Quantity
	}
	return fields
}

// Partition splits items into materials and costumes. Items without an
// explicit category tag fall back to the quantity-presence classification.
func Partition(items []Item) (materials, costumes []Item) {
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = inferCategory(item)
		}
		if category == CategoryMaterials {
			materials = append(materials, item)
		} else {
			costumes = append(costumes, item)
		}
	}
	return materials, costumes
}

// inferCategory classifies legacy documents that predate the explicit
// category tag: presence of quantity means material, absence means costume.
func inferCategory(i Item) string {
	if i.Quantity != nil {
		return CategoryMaterials
	}
	return CategoryCostumes
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
