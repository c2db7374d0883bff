package domain

import "fmt"

// UnitKind — тип объекта, для которого дескрипторы вычисляются один раз.
type UnitKind string

const (
	UnitPerson UnitKind = "person"
	UnitPhoto  UnitKind = "photo"
)

// DescriptorUnit идентифицирует персону или фото в таблице descriptor_units.
type DescriptorUnit struct {
	Kind UnitKind
	ID   int64
}

func (u DescriptorUnit) String() string {
	return fmt.Sprintf("%s:%d", u.Kind, u.ID)
}
