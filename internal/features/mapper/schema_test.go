package mapper

import "testing"

func TestMapSchemaPrimaryKeyFirst(t *testing.T) {
	cols := MapSchema(map[string]string{"Name": "title"})

	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(cols))
	}
	if cols[0].Name != PrimaryKeyColumn || cols[0].Type != TypeKey {
		t.Errorf("first column = %+v, want primary key", cols[0])
	}
	if cols[0].Nullable {
		t.Error("primary key must not be nullable")
	}
	if cols[1].Name != "name" || cols[1].Type != TypeLongText {
		t.Errorf("second column = %+v, want name/long_text", cols[1])
	}
}

func TestMapSchemaCollisions(t *testing.T) {
	cols := MapSchema(map[string]string{
		"Price $":   "number",
		"Price ($)": "number",
		"Price":     "number",
	})

	names := map[string]bool{}
	for _, c := range cols[1:] {
		if names[c.Name] {
			t.Fatalf("duplicate column name %q", c.Name)
		}
		names[c.Name] = true
	}

	// Sorted source order: "Price", "Price $", "Price ($)".
	want := []string{"price", "price_1", "price_2"}
	for i, w := range want {
		if cols[i+1].Name != w {
			t.Errorf("column %d = %q, want %q", i+1, cols[i+1].Name, w)
		}
	}
}

func TestMapSchemaEmptyNameSynthesized(t *testing.T) {
	cols := MapSchema(map[string]string{"★★★": "checkbox"})

	if cols[1].Name != "field_boolean" {
		t.Errorf("synthesized name = %q, want field_boolean", cols[1].Name)
	}
}

func TestProjectTypeTotal(t *testing.T) {
	known := map[string]ColumnType{
		"title":            TypeLongText,
		"rich_text":        TypeLongText,
		"number":           TypeFloat,
		"checkbox":         TypeBoolean,
		"date":             TypeDateTime,
		"created_time":     TypeDateTime,
		"last_edited_time": TypeDateTime,
		"select":           TypeText,
		"status":           TypeText,
		"email":            TypeText,
		"url":              TypeText,
		"phone_number":     TypeText,
		"created_by":       TypeText,
		"last_edited_by":   TypeText,
		"multi_select":     TypeLongText,
		"relation":         TypeJSON,
		"rollup":           TypeJSON,
		"formula":          TypeJSON,
		"people":           TypeJSON,
		"files":            TypeJSON,
		"unique_id":        TypeJSON,
		"verification":     TypeJSON,
	}

	for tag, want := range known {
		if got := ProjectType(tag); got != want {
			t.Errorf("ProjectType(%q) = %q, want %q", tag, got, want)
		}
	}

	if got := ProjectType("some_future_type"); got != TypeLongText {
		t.Errorf("unrecognized type mapped to %q, want long text fallback", got)
	}
}

func TestMapSchemaDeterministic(t *testing.T) {
	props := map[string]string{
		"Zeta":  "number",
		"Alpha": "title",
		"Mid":   "select",
	}

	first := MapSchema(props)
	second := MapSchema(props)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("column %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
