package domain

// PinType categorizes an instance or legacy pin.
type PinType string

const (
	PinTypeShit PinType = "shit"
	PinTypeCum  PinType = "cum"
	PinTypePiss PinType = "piss"
)

// AllPinTypes returns every known type in display order.
func AllPinTypes() []PinType {
	return []PinType{PinTypeShit, PinTypeCum, PinTypePiss}
}

// ParsePinType converts s to a PinType. Matching is exact; stored values are
// always lowercase.
func ParsePinType(s string) (PinType, bool) {
	switch t := PinType(s); t {
	case PinTypeShit, PinTypeCum, PinTypePiss:
		return t, true
	}
	return "", false
}

// IsValidPinType reports whether s names a known type.
func IsValidPinType(s string) bool {
	_, ok := ParsePinType(s)
	return ok
}

// DisplayName returns the capitalized label shown to users, or "Unknown".
func (t PinType) DisplayName() string {
	switch t {
	case PinTypeShit:
		return "Shit"
	case PinTypeCum:
		return "Cum"
	case PinTypePiss:
		return "Piss"
	default:
		return "Unknown"
	}
}
