package schema_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-dynform/pkg/schema"
)

func TestParseRawFields_JSONSkipsUndecodableRecords(t *testing.T) {
	raw := loadFixture(t, "form.json")
	if len(raw) != 9 {
		t.Fatalf("expected 9 decoded records, got %d", len(raw))
	}

	_, diags, err := schema.ParseRawFields([]byte(`[{"name": "ok", "type": "StringListWidget"}, 42]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %v", diags)
	}
	var schemaErr *schema.SchemaError
	if !errors.As(diags[0].Err, &schemaErr) || schemaErr.Index != 1 {
		t.Fatalf("unexpected diagnostic: %v", diags[0])
	}
}

func TestParseRawFields_YAML(t *testing.T) {
	doc := []byte(`
- name: year
  type: StringChoiceWidget
  label: Year
  details:
    labels:
      2020: Twenty twenty
    values: [2020, 2021]
    columns: "3"
    default: 2020
- name: month
  type: StringListWidget
  details:
    values: "01"
    labels: not-a-map
`)

	fields, diags, err := schema.ParseRawFields(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	want := []schema.RawField{
		{
			Name:  "year",
			Type:  "StringChoiceWidget",
			Label: "Year",
			Details: schema.RawDetails{
				Labels:  schema.LabelMap{"2020": "Twenty twenty"},
				Values:  schema.StringList{"2020", "2021"},
				Columns: 3,
				Default: schema.StringList{"2020"},
			},
		},
		{
			Name: "month",
			Type: "StringListWidget",
			Details: schema.RawDetails{
				Values: schema.StringList{"01"},
			},
		},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("decoded fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRawFields_Errors(t *testing.T) {
	if fields, diags, err := schema.ParseRawFields([]byte("  ")); err != nil || fields != nil || diags != nil {
		t.Fatalf("empty document should decode to nothing, got %v %v %v", fields, diags, err)
	}
	if _, _, err := schema.ParseRawFields([]byte(`{"name": "x"}`)); !errors.Is(err, schema.ErrNotAList) {
		t.Fatalf("expected ErrNotAList for JSON object, got %v", err)
	}
	if _, _, err := schema.ParseRawFields([]byte("name: x\n")); !errors.Is(err, schema.ErrNotAList) {
		t.Fatalf("expected ErrNotAList for YAML mapping, got %v", err)
	}
}
