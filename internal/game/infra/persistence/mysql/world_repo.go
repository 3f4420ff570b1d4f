package mysql

import (
	"context"
	"errors"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/errs"
	"Regnum/internal/game/infra/persistence/model"

	"gorm.io/gorm"
)

const (
	OpMigrate = "repo.mysql.Migrate"
	OpLoad    = "repo.mysql.Load"
	OpSave    = "repo.mysql.Save"
)

type WorldRepository struct {
	db *gorm.DB
}

func NewWorldRepository(db *gorm.DB) *WorldRepository {
	return &WorldRepository{db: db}
}

func (r *WorldRepository) WithTx(tx *gorm.DB) *WorldRepository {
	return &WorldRepository{db: tx}
}

// Migrate 建表/补列。
func (r *WorldRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return errs.Wrap(OpMigrate, errs.KindInfra, err, nil)
	}
	return nil
}

func (r *WorldRepository) Load(ctx context.Context) (*domain.WorldState, error) {
	db := r.db.WithContext(ctx)
	s := &domain.WorldState{}

	var players []model.Player
	if err := db.Find(&players).Error; err != nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"table": "player"})
	}
	for i := range players {
		s.Players = append(s.Players, players[i].ToDomain())
	}

	var regions []model.Region
	if err := db.Find(&regions).Error; err != nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"table": "region"})
	}
	for i := range regions {
		s.Regions = append(s.Regions, regions[i].ToDomain())
	}

	var alliances []model.Alliance
	if err := db.Find(&alliances).Error; err != nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"table": "alliance"})
	}
	for i := range alliances {
		s.Alliances = append(s.Alliances, alliances[i].ToDomain())
	}

	var wars []model.War
	if err := db.Find(&wars).Error; err != nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"table": "war"})
	}
	for i := range wars {
		s.Wars = append(s.Wars, wars[i].ToDomain())
	}

	var buildings []model.Building
	if err := db.Find(&buildings).Error; err != nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"table": "building"})
	}
	for i := range buildings {
		s.Buildings = append(s.Buildings, buildings[i].ToDomain())
	}

	var armies []model.Army
	if err := db.Find(&armies).Error; err != nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"table": "army"})
	}
	for i := range armies {
		s.Armies = append(s.Armies, armies[i].ToDomain())
	}

	var cp model.Checkpoint
	err := db.Where("id = ?", model.CheckpointID).First(&cp).Error
	switch {
	case err == nil:
		c, derr := cp.ToDomain()
		if derr != nil {
			return nil, errs.Wrap(OpLoad, errs.KindInfra, derr, map[string]any{"table": "checkpoint"})
		}
		s.Checkpoint = &c
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		// 纯技术错误（连接超时等），包装后交给上级
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"table": "checkpoint"})
	}
	return s, nil
}

// Save 一个快照一个事务。
func (r *WorldRepository) Save(ctx context.Context, s *domain.WorldSnap) error {
	if s == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.WithTx(tx).save(s)
	})
}

func (r *WorldRepository) save(s *domain.WorldSnap) error {
	meta := map[string]any{"version": s.Version}

	for _, p := range s.Players {
		if err := r.db.Save(model.PlayerFromDomain(p)).Error; err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, map[string]any{"version": s.Version, "player_id": string(p.Player.ID)})
		}
	}
	for _, v := range s.Regions {
		if err := r.db.Save(model.RegionFromDomain(v)).Error; err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, map[string]any{"version": s.Version, "region": v.Name})
		}
	}
	for _, v := range s.Alliances {
		if err := r.db.Save(model.AllianceFromDomain(v)).Error; err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, meta)
		}
	}
	for _, v := range s.Wars {
		if err := r.db.Save(model.WarFromDomain(v)).Error; err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, meta)
		}
	}
	for _, v := range s.Buildings {
		if err := r.db.Save(model.BuildingFromDomain(v)).Error; err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, meta)
		}
	}
	for _, v := range s.Armies {
		if err := r.db.Save(model.ArmyFromDomain(v)).Error; err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, meta)
		}
	}

	if ids := s.Removed.Players; len(ids) > 0 {
		if err := r.db.Where("id IN ?", ids).Delete(&model.Player{}).Error; err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, meta)
		}
	}
	if ids := s.Removed.Buildings; len(ids) > 0 {
		if err := r.db.Where("id IN ?", ids).Delete(&model.Building{}).Error; err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, meta)
		}
	}
	if ids := s.Removed.Armies; len(ids) > 0 {
		if err := r.db.Where("id IN ?", ids).Delete(&model.Army{}).Error; err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, meta)
		}
	}

	if s.Checkpoint != nil {
		row, err := model.CheckpointFromDomain(*s.Checkpoint)
		if err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, meta)
		}
		if err := r.db.Save(row).Error; err != nil {
			return errs.Wrap(OpSave, errs.KindInfra, err, meta)
		}
	}
	return nil
}
