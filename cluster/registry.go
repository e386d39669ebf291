package cluster

// ValueType is the inferred type of a series' points, fixed at the
// series' first insert.
type ValueType uint8

const (
	ValueTypeInteger ValueType = iota
	ValueTypeFloat
	ValueTypeString
)

// SeriesHandle is the opaque handle the storage collaborator's append
// interface accepts. The insert core never inspects its fields besides
// Type; the concrete storage engine is free to attach whatever it needs.
type SeriesHandle struct {
	Name string
	Type ValueType
}

// SeriesRegistry supports get-or-create with inferred value type:
// inference uses the first point's value type of a new series, and
// concurrent creations of the same name must be serialized by the
// implementation.
type SeriesRegistry interface {
	GetOrCreate(name []byte, inferredType ValueType) (*SeriesHandle, error)
}
