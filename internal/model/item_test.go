package model

import "testing"

func TestFromFieldsCoercesQuantity(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
		ok    bool
	}{
		{"json number", float64(12), 12, true},
		{"int", 7, 7, true},
		{"int64", int64(3), 3, true},
		{"numeric string", "5", 5, true},
		{"garbage string", "muchas", 0, false},
		{"missing", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]any{"name": "Cintas", "status": StatusStorage}
			if tt.value != nil {
				fields["quantity"] = tt.value
			}

			item := FromFields("id1", fields)
			if tt.ok {
				if item.Quantity == nil || *item.Quantity != tt.want {
					t.Errorf("quantity = %v, want %d", item.Quantity, tt.want)
				}
			} else if item.Quantity != nil {
				t.Errorf("quantity = %d, want absent", *item.Quantity)
			}
		})
	}
}

func TestFromFieldsKeepsExplicitCategory(t *testing.T) {
	item := FromFields("id1", map[string]any{
		"name":     "Vestido",
		"status":   StatusStorage,
		"category": CategoryCostumes,
		// A stray quantity must not override the explicit tag.
		"quantity": float64(2),
	})
	if item.Category != CategoryCostumes {
		t.Errorf("category = %q, want %q", item.Category, CategoryCostumes)
	}
}

func TestFromFieldsInfersCategoryFromQuantity(t *testing.T) {
	withQty := FromFields("id1", map[string]any{"name": "Telas", "quantity": float64(4)})
	if withQty.Category != CategoryMaterials {
		t.Errorf("category = %q, want %q", withQty.Category, CategoryMaterials)
	}

	withoutQty := FromFields("id2", map[string]any{"name": "Tutú"})
	if withoutQty.Category != CategoryCostumes {
		t.Errorf("category = %q, want %q", withoutQty.Category, CategoryCostumes)
	}
}

func TestFieldsOmitsIDAndNilQuantity(t *testing.T) {
	qty := 3
	item := Item{ID: "id1", Name: "Cintas", Status: StatusLoaned, LoanedTo: "Marta", Quantity: &qty, Category: CategoryMaterials}

	fields := item.Fields()
	if _, present := fields["id"]; present {
		t.Error("fields should not carry the id")
	}
	if fields["quantity"] != 3 {
		t.Errorf("quantity = %v, want 3", fields["quantity"])
	}

	costume := Item{ID: "id2", Name: "Vestido", Status: StatusStorage, Category: CategoryCostumes}
	if _, present := costume.Fields()["quantity"]; present {
		t.Error("nil quantity should be omitted from fields")
	}
}

func TestPartition(t *testing.T) {
	qty := 1
	items := []Item{
		{ID: "1", Category: CategoryMaterials, Quantity: &qty},
		{ID: "2", Category: CategoryCostumes},
		{ID: "3", Category: CategoryCostumes},
	}

	materials, costumes := Partition(items)
	if len(materials) != 1 || materials[0].ID != "1" {
		t.Errorf("materials = %v", materials)
	}
	if len(costumes) != 2 {
		t.Errorf("costumes = %v", costumes)
	}
}

func TestPartitionFallsBackToQuantityPresence(t *testing.T) {
	qty := 5
	items := []Item{
		// Untagged legacy items: the quantity heuristic decides.
		{ID: "1", Quantity: &qty},
		{ID: "2"},
		// An explicit tag always wins over the heuristic.
		{ID: "3", Category: CategoryCostumes, Quantity: &qty},
	}

	materials, costumes := Partition(items)
	if len(materials) != 1 || materials[0].ID != "1" {
		t.Errorf("materials = %v, want the untagged item with a quantity", materials)
	}
	if len(costumes) != 2 {
		t.Errorf("costumes = %v, want untagged without quantity plus tagged", costumes)
	}
}

func TestValidStatusAndCategory(t *testing.T) {
	for _, s := range []string{StatusStorage, StatusLoaned, StatusRepair} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false", s)
		}
	}
	if ValidStatus("Almacén") {
		t.Error("display names are not statuses")
	}
	if !ValidCategory(CategoryMaterials) || !ValidCategory(CategoryCostumes) {
		t.Error("known categories should validate")
	}
	if ValidCategory("props") {
		t.Error("unknown category should not validate")
	}
}
