// Bulk-imports creatures from a YAML file into the checklist, attributing
// every record to one existing identity. Existing entries (matched by common
// name) are skipped, so re-running the import is safe.
//
// Usage:
//
//	go run ./cmd/seed -file creatures.yaml -owner alice
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/wallowawildlife/ww-backend/internal/auth"
	"github.com/wallowawildlife/ww-backend/internal/checklist"
	"github.com/wallowawildlife/ww-backend/internal/db"
)

type seedCreature struct {
	NameCommon string   `yaml:"name_common"`
	NameLatin  string   `yaml:"name_latin"`
	PhotoAttr  string   `yaml:"photo_attr"`
	PhotoURL   string   `yaml:"photo_url"`
	WikiURL    string   `yaml:"wiki_url"`
	Type       string   `yaml:"type"`
	Habitats   []string `yaml:"habitats"`
}

type seedFile struct {
	Creatures []seedCreature `yaml:"creatures"`
}

func main() {
	file := flag.String("file", "creatures.yaml", "YAML file of creatures to import")
	owner := flag.String("owner", "", "identity name to attribute the records to")
	flag.Parse()

	if *owner == "" {
		log.Fatal("-owner is required")
	}

	_ = godotenv.Load(".env.local")
	db.Connect()
	auth.Init()
	checklist.Init()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Could not read %s: %v", *file, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("Failed unmarshaling yaml: %v", err)
	}

	identity, err := auth.Store().FindByName(*owner)
	if err != nil {
		log.Fatalf("Owner identity %q not found: %v", *owner, err)
	}

	ctx := context.Background()
	repo := checklist.Repository()

	imported := 0
	for _, c := range seed.Creatures {
		ct, err := repo.TypeBySlug(ctx, c.Type)
		if err != nil {
			log.Fatalf("Unknown creature type %q for %q", c.Type, c.NameCommon)
		}

		if existing, err := repo.FindByCommonName(ctx, c.NameCommon); err == nil && existing != nil {
			log.Printf("Creature already exists, skipping: %s", c.NameCommon)
			continue
		}

		creature := checklist.Creature{
			NameCommon: c.NameCommon,
			NameLatin:  c.NameLatin,
			PhotoAttr:  c.PhotoAttr,
			PhotoURL:   c.PhotoURL,
			WikiURL:    c.WikiURL,
			Habitats:   c.Habitats,
			OwnerID:    identity.ID,
			TypeID:     ct.ID,
		}
		if err := repo.Create(ctx, &creature); err != nil {
			log.Fatalf("Failed to create creature %s: %v", c.NameCommon, err)
		}
		imported++
	}

	log.Printf("Successfully seeded %d creatures", imported)
}
