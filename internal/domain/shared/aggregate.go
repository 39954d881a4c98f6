package shared

import "time"

// AggregateRoot is an entity saved as a unit and guarded by a version number
type AggregateRoot interface {
	Entity
	GetVersion() int
	Touch(at time.Time)
}

// BaseAggregateRoot adds the optimistic-locking version to BaseEntity
type BaseAggregateRoot struct {
	BaseEntity
	Version int `gorm:"not null;default:1"`
}

// GetVersion returns the aggregate version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// Touch records a state change made at t
func (a *BaseAggregateRoot) Touch(at time.Time) {
	a.UpdatedAt = at
	a.Version++
}

// NewBaseAggregateRoot creates version 1 of a new aggregate
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}
