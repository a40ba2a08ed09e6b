package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultCatalog is the item catalog seeded into an empty item_types table.
var DefaultCatalog = []ItemType{
	{ID: "plastic_bottle", Name: "Plastic bottle", Icon: "🧴", Category: "plastic", DefaultBinDoubleStream: BinContainers,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Empty and rinse", "Put the cap back on"}},
	{ID: "aluminum_can", Name: "Aluminum can", Icon: "🥫", Category: "metal", DefaultBinDoubleStream: BinContainers,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Empty and rinse"}},
	{ID: "steel_can", Name: "Steel can", Icon: "🥫", Category: "metal", DefaultBinDoubleStream: BinContainers,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Empty and rinse", "Leave the label on"}},
	{ID: "glass_jar", Name: "Glass jar", Icon: "🫙", Category: "glass", DefaultBinDoubleStream: BinContainers,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Empty and rinse", "Remove the lid"}},
	{ID: "plastic_tub", Name: "Plastic tub", Icon: "🥡", Category: "plastic", DefaultBinDoubleStream: BinContainers,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Scrape out food", "Rinse"}},
	{ID: "milk_carton", Name: "Milk carton", Icon: "🥛", Category: "carton", DefaultBinDoubleStream: BinContainers,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Empty and rinse", "Flatten"}},
	{ID: "aerosol_can", Name: "Aerosol can", Icon: "🧯", Category: "metal", DefaultBinDoubleStream: BinSpecial,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Make sure it is completely empty", "Do not puncture"}},
	{ID: "cardboard", Name: "Cardboard", Icon: "📦", Category: "paper", DefaultBinDoubleStream: BinPaper,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Flatten", "Remove tape"}},
	{ID: "paper", Name: "Paper", Icon: "📄", Category: "paper", DefaultBinDoubleStream: BinPaper,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Keep dry"}},
	{ID: "newspaper", Name: "Newspaper", Icon: "📰", Category: "paper", DefaultBinDoubleStream: BinPaper,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Keep dry", "Remove plastic sleeves"}},
	{ID: "pizza_box", Name: "Pizza box", Icon: "🍕", Category: "paper", DefaultBinDoubleStream: BinPaper,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Remove food scraps", "Tear off greasy parts"}},
	{ID: "plastic_bag", Name: "Plastic bag", Icon: "🛍️", Category: "plastic", DefaultBinDoubleStream: BinSpecial,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Bundle bags together", "Take to a store drop-off"}},
	{ID: "styrofoam", Name: "Styrofoam", Icon: "🧊", Category: "plastic", DefaultBinDoubleStream: BinSpecial,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Check for a local drop-off"}},
	{ID: "battery", Name: "Battery", Icon: "🔋", Category: "hazardous", DefaultBinDoubleStream: BinSpecial,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Tape the terminals", "Never put in curbside bins"}},
	{ID: "electronics", Name: "Electronics", Icon: "📱", Category: "hazardous", DefaultBinDoubleStream: BinSpecial,
		DefaultPrepSteps: datatypes.JSONSlice[string]{"Wipe personal data", "Take to an e-waste drop-off"}},
}

// SeedCatalog inserts DefaultCatalog when the item_types table is empty.
// It returns the number of rows inserted.
func SeedCatalog(db *gorm.DB) (int, error) {
	var n int64
	if err := db.Model(&ItemType{}).Count(&n).Error; err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	items := make([]ItemType, len(DefaultCatalog))
	copy(items, DefaultCatalog)
	if err := db.Create(&items).Error; err != nil {
		return 0, err
	}
	return len(items), nil
}
