package models

// PermitTypeID selects which detail schema and table applies to a permit.
type PermitTypeID uint

const (
	// TypeHeightWork is work at height (scaffolding, platforms, harnesses).
	TypeHeightWork PermitTypeID = iota + 1
	// TypeHotWork is welding, cutting and other spark producing work.
	TypeHotWork
	// TypeElectricWork is work on or near electrical installations.
	TypeElectricWork
	// TypeGeneralWork is any other permit requiring work.
	TypeGeneralWork
)

// Valid reports whether t is a known permit type.
func (t PermitTypeID) Valid() bool {
	return t >= TypeHeightWork && t <= TypeGeneralWork
}

// String returns the display name of the permit type.
func (t PermitTypeID) String() string {
	switch t {
	case TypeHeightWork:
		return "Height Work"
	case TypeHotWork:
		return "Hot Work"
	case TypeElectricWork:
		return "Electric Work"
	case TypeGeneralWork:
		return "General Work"
	default:
		return "Unknown"
	}
}

// DetailTable returns the table holding the detail rows for this type.
func (t PermitTypeID) DetailTable() string {
	switch t {
	case TypeHeightWork:
		return HeightWorkDetail{}.TableName()
	case TypeHotWork:
		return HotWorkDetail{}.TableName()
	case TypeElectricWork:
		return ElectricWorkDetail{}.TableName()
	case TypeGeneralWork:
		return GeneralWorkDetail{}.TableName()
	default:
		return ""
	}
}

// NewDetail returns an empty detail record of the right type for t,
// or nil if t is not a known permit type.
func (t PermitTypeID) NewDetail() Detail {
	switch t {
	case TypeHeightWork:
		return &HeightWorkDetail{}
	case TypeHotWork:
		return &HotWorkDetail{}
	case TypeElectricWork:
		return &ElectricWorkDetail{}
	case TypeGeneralWork:
		return &GeneralWorkDetail{}
	default:
		return nil
	}
}

// AllPermitTypes lists every known permit type, in detail table order.
func AllPermitTypes() []PermitTypeID {
	return []PermitTypeID{TypeHeightWork, TypeHotWork, TypeElectricWork, TypeGeneralWork}
}
