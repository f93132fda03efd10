package validate

import "testing"

// payload mirrors the API item payload shape and its rules.
type payload struct {
	Name     string `json:"name" validate:"required,max=200"`
	Status   string `json:"status" validate:"required,oneof=Storage Loaned Repair"`
	LoanedTo string `json:"loanedTo" validate:"max=200"`
	Category string `json:"category" validate:"required,oneof=materials costumes"`
	Quantity *int   `json:"quantity" validate:"required_if=Category materials,excluded_if=Category costumes,omitempty,gte=0"`
}

func intPtr(n int) *int { return &n }

func TestStructValid(t *testing.T) {
	valid := []payload{
		{Name: "Cintas", Status: "Storage", Category: "materials", Quantity: intPtr(12)},
		{Name: "Cintas", Status: "Storage", Category: "materials", Quantity: intPtr(0)},
		{Name: "Vestido", Status: "Loaned", LoanedTo: "Marta", Category: "costumes"},
	}
	for _, p := range valid {
		if err := Struct(&p); err != nil {
			t.Errorf("Struct(%+v) = %v, want nil", p, err)
		}
	}
}

func TestStructInvalid(t *testing.T) {
	tests := []struct {
		name    string
		payload payload
		field   string
	}{
		{
			"missing name",
			payload{Status: "Storage", Category: "materials", Quantity: intPtr(1)},
			"name",
		},
		{
			"unknown status",
			payload{Name: "Cintas", Status: "Lost", Category: "materials", Quantity: intPtr(1)},
			"status",
		},
		{
			"material without quantity",
			payload{Name: "Cintas", Status: "Storage", Category: "materials"},
			"quantity",
		},
		{
			"costume with quantity",
			payload{Name: "Vestido", Status: "Storage", Category: "costumes", Quantity: intPtr(1)},
			"quantity",
		},
		{
			"negative quantity",
			payload{Name: "Cintas", Status: "Storage", Category: "materials", Quantity: intPtr(-1)},
			"quantity",
		},
		{
			"unknown category",
			payload{Name: "Cintas", Status: "Storage", Category: "props"},
			"category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.payload)
			if err == nil {
				t.Fatal("expected a validation error")
			}

			fields := Errors(err)
			if _, found := fields[tt.field]; !found {
				t.Errorf("Errors(err) = %v, want entry for %q", fields, tt.field)
			}
		})
	}
}

func TestErrorsUsesJSONNames(t *testing.T) {
	err := Struct(&payload{Status: "Storage", Category: "costumes"})
	if err == nil {
		t.Fatal("expected a validation error")
	}

	fields := Errors(err)
	if _, found := fields["Name"]; found {
		t.Error("error map should not use Go field names")
	}
	if _, found := fields["name"]; !found {
		t.Errorf("error map = %v, want json name %q", fields, "name")
	}
}
