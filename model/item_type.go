package model

import "gorm.io/datatypes"

// ItemType is a read-only catalog entry. ID is a stable slug such as
// "plastic_bottle" referenced by rules and log entries.
type ItemType struct {
	ID                     string                      `gorm:"primaryKey;size:64" json:"id" validate:"required"`
	Name                   string                      `gorm:"size:64;not null;index" json:"name" validate:"required"`
	Icon                   string                      `gorm:"size:16" json:"icon"`
	Category               string                      `gorm:"size:32" json:"category"`
	DefaultBinDoubleStream Bin                         `gorm:"size:16;not null" json:"default_bin_double_stream" validate:"oneof=paper containers special"`
	DefaultPrepSteps       datatypes.JSONSlice[string] `json:"default_prep_steps"`
}
