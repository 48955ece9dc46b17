package checklist

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repo is the checklist repository: CRUD over creature records, independent
// of who is asking. Authorization happens in the handlers.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) ListTypes(ctx context.Context) ([]CreatureType, error) {
	var types []CreatureType
	err := r.db.WithContext(ctx).Order("id").Find(&types).Error
	return types, err
}

func (r *Repo) TypeBySlug(ctx context.Context, slug string) (*CreatureType, error) {
	var ct CreatureType
	err := r.db.WithContext(ctx).First(&ct, "url_text = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownType
	}
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *Repo) TypeByID(ctx context.Context, id uint) (*CreatureType, error) {
	var ct CreatureType
	err := r.db.WithContext(ctx).First(&ct, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownType
	}
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *Repo) ListAll(ctx context.Context) ([]Creature, error) {
	var creatures []Creature
	err := r.db.WithContext(ctx).Order("name_common").Find(&creatures).Error
	return creatures, err
}

func (r *Repo) ListByType(ctx context.Context, typeID uint) ([]Creature, error) {
	var creatures []Creature
	err := r.db.WithContext(ctx).Order("name_common").Find(&creatures, "type_id = ?", typeID).Error
	return creatures, err
}

func (r *Repo) FindByCommonName(ctx context.Context, name string) (*Creature, error) {
	var creature Creature
	err := r.db.WithContext(ctx).First(&creature, "name_common = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCreatureNotFound
	}
	if err != nil {
		return nil, err
	}
	return &creature, nil
}

func (r *Repo) Get(ctx context.Context, id uint) (*Creature, error) {
	var creature Creature
	err := r.db.WithContext(ctx).First(&creature, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCreatureNotFound
	}
	if err != nil {
		return nil, err
	}
	return &creature, nil
}

func (r *Repo) Create(ctx context.Context, creature *Creature) error {
	return r.db.WithContext(ctx).Create(creature).Error
}

func (r *Repo) Update(ctx context.Context, creature *Creature) error {
	return r.db.WithContext(ctx).Save(creature).Error
}

func (r *Repo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&Creature{}, "id = ?", id).Error
}
