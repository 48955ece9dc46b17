package checklist

import (
	"log"

	"github.com/wallowawildlife/ww-backend/internal/db"
	"gorm.io/gorm"
)

var repo *Repo

// SeedTypes is the fixed set of checklist categories. Creature.TypeID
// foreign-keys into these rows, so the set must exist before any creature is
// created and is applied exactly once per slug.
var SeedTypes = []CreatureType{
	{Name: "Mammal", URLText: "mammal"},
	{Name: "Bird", URLText: "bird"},
	{Name: "Reptile/Amphibian", URLText: "reptile_amphibian"},
	{Name: "Tree/Shrub", URLText: "tree_shrub"},
	{Name: "Fish", URLText: "fish"},
	{Name: "Wildflower", URLText: "wildflower"},
	{Name: "Spider/Insect", URLText: "spider_insect"},
}

func seedTypes(d *gorm.DB) error {
	for _, t := range SeedTypes {
		ct := t
		if err := d.Where("url_text = ?", t.URLText).FirstOrCreate(&ct).Error; err != nil {
			return err
		}
	}
	return nil
}

func Init() {
	if err := db.EnsureSchema(db.DB, "checklist"); err != nil {
		log.Fatal("Failed to ensure schema checklist: ", err)
	}

	if err := db.DB.AutoMigrate(&CreatureType{}, &Creature{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	if err := seedTypes(db.DB); err != nil {
		log.Fatal("Failed to seed creature types: ", err)
	}

	repo = NewRepo(db.DB)
}

// Repository exposes the checklist repository for auxiliary binaries.
func Repository() *Repo {
	return repo
}
