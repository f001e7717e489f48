package model

// Datatype is the value type of a Homie property, declared by its
// $datatype attribute.
type Datatype string

func (d Datatype) String() string {
	return string(d)
}

const (
	DatatypeInteger Datatype = "integer"
	DatatypeFloat   Datatype = "float"
	DatatypeBoolean Datatype = "boolean"
	DatatypeString  Datatype = "string"
	DatatypeEnum    Datatype = "enum"
	DatatypeColor   Datatype = "color"
)

var Datatypes = []Datatype{
	DatatypeInteger,
	DatatypeFloat,
	DatatypeBoolean,
	DatatypeString,
	DatatypeEnum,
	DatatypeColor,
}

// ParseDatatype maps a $datatype payload to its Datatype. The second
// return is false for tokens outside the Homie vocabulary.
func ParseDatatype(token string) (Datatype, bool) {
	for _, d := range Datatypes {
		if d.String() == token {
			return d, true
		}
	}
	return DatatypeString, false
}

// IsNumeric reports whether payloads of this datatype decode to numbers.
func (d Datatype) IsNumeric() bool {
	return d == DatatypeInteger || d == DatatypeFloat
}

// SemanticCategory classifies a property for the host's UI/automation
// layer. It is inferred, never declared by the device.
type SemanticCategory string

func (c SemanticCategory) String() string {
	return string(c)
}

const (
	CategoryTemperature SemanticCategory = "temperature"
	CategoryVoltage     SemanticCategory = "voltage"
	CategoryPower       SemanticCategory = "power"
	CategoryCurrent     SemanticCategory = "current"
	CategoryLevel       SemanticCategory = "level"
)

// UnitCategories maps raw $unit tokens to the category they imply.
var UnitCategories = map[string]SemanticCategory{
	"°C": CategoryTemperature,
	"V":  CategoryVoltage,
	"W":  CategoryPower,
	"A":  CategoryCurrent,
	"%":  CategoryLevel,
}

// Range is the numeric bound pair parsed from a min:max $format payload.
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}
