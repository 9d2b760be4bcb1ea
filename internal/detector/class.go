package detector

import (
	"fmt"
	"strings"
)

// Class is the semantic label of a detected region.
type Class int

const (
	ClassUnknown Class = iota
	ClassRoom
	ClassMeterInteger
	ClassMeterDecimal
)

// Classes lists the known classes in reporting order.
var Classes = []Class{ClassRoom, ClassMeterInteger, ClassMeterDecimal}

func (c Class) String() string {
	switch c {
	case ClassRoom:
		return "room"
	case ClassMeterInteger:
		return "meter_integer"
	case ClassMeterDecimal:
		return "meter_decimal"
	default:
		return "unknown"
	}
}

// ParseClass accepts canonical names plus the labels used when the model was trained.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "room", "roomn":
		return ClassRoom, nil
	case "meter_integer", "meter":
		return ClassMeterInteger, nil
	case "meter_decimal", "meter1", "decimal":
		return ClassMeterDecimal, nil
	default:
		return ClassUnknown, fmt.Errorf("unknown region class %q", s)
	}
}

// DefaultClassNames maps model output indices to classes in training order.
func DefaultClassNames() []string {
	return []string{"meter_integer", "meter_decimal", "room"}
}

// classTable resolves model output indices to classes.
func classTable(names []string) ([]Class, error) {
	table := make([]Class, len(names))
	for i, n := range names {
		c, err := ParseClass(n)
		if err != nil {
			return nil, fmt.Errorf("class index %d: %w", i, err)
		}
		table[i] = c
	}
	return table, nil
}
