package reading

import "fmt"

// Field identifies one of the recognised measurement fields.
//
// The set is closed: topic segments and payload keys are mapped onto it
// with ParseField, and anything outside the set is rejected rather than
// dispatched dynamically.
type Field string

// Recognised measurement fields.
const (
	FieldTemperature Field = "temperature"
	FieldTurbidity   Field = "turbidity"
	FieldPH          Field = "ph"
	FieldTDS         Field = "tds"
)

// Fields lists every recognised field in canonical order.
// The order is stable; response payloads and column dispatch rely on it.
func Fields() []Field {
	return []Field{FieldTemperature, FieldTurbidity, FieldPH, FieldTDS}
}

// ParseField maps a field name onto the closed field set.
// Returns ErrInvalidField for anything unrecognised.
func ParseField(name string) (Field, error) {
	switch Field(name) {
	case FieldTemperature, FieldTurbidity, FieldPH, FieldTDS:
		return Field(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
}

// String returns the field's wire name.
func (f Field) String() string {
	return string(f)
}
