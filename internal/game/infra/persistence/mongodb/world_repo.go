package mongodb

import (
	"context"
	"errors"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/errs"
	"Regnum/internal/game/infra/persistence/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	collPlayers   = "players"
	collRegions   = "regions"
	collAlliances = "alliances"
	collWars      = "wars"
	collBuildings = "buildings"
	collArmies    = "armies"
	collMeta      = "meta"
)

const (
	OpLoad = "repo.mongo.Load"
	OpSave = "repo.mongo.Save"
)

// WorldRepository 每类实体一个集合，写入用按 _id 的 ReplaceOne upsert。
type WorldRepository struct {
	db *mongo.Database
}

func NewWorldRepository(db *mongo.Database) *WorldRepository {
	return &WorldRepository{db: db}
}

func (r *WorldRepository) Load(ctx context.Context) (*domain.WorldState, error) {
	if r == nil || r.db == nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, errors.New("mongodb database is nil"), nil)
	}

	s := &domain.WorldState{}
	var players []model.PlayerDoc
	if err := r.findAll(ctx, collPlayers, &players); err != nil {
		return nil, err
	}
	for _, d := range players {
		s.Players = append(s.Players, d.ToDomain())
	}
	if err := r.findAll(ctx, collRegions, &s.Regions); err != nil {
		return nil, err
	}
	if err := r.findAll(ctx, collAlliances, &s.Alliances); err != nil {
		return nil, err
	}
	if err := r.findAll(ctx, collWars, &s.Wars); err != nil {
		return nil, err
	}
	if err := r.findAll(ctx, collBuildings, &s.Buildings); err != nil {
		return nil, err
	}
	if err := r.findAll(ctx, collArmies, &s.Armies); err != nil {
		return nil, err
	}

	var cp model.CheckpointDoc
	err := r.db.Collection(collMeta).FindOne(ctx, bson.M{"_id": model.CheckpointID}).Decode(&cp)
	switch {
	case err == nil:
		s.Checkpoint = &domain.ProductionCheckpoint{LastWindow: cp.LastWindow, Remainders: cp.Remainders}
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"collection": collMeta})
	}
	return s, nil
}

func (r *WorldRepository) findAll(ctx context.Context, coll string, out any) error {
	cur, err := r.db.Collection(coll).Find(ctx, bson.M{})
	if err != nil {
		return errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"collection": coll})
	}
	if err := cur.All(ctx, out); err != nil {
		return errs.Wrap(OpLoad, errs.KindInfra, err, map[string]any{"collection": coll})
	}
	return nil
}

func (r *WorldRepository) Save(ctx context.Context, s *domain.WorldSnap) error {
	if s == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return errs.Wrap(OpSave, errs.KindInfra, errors.New("mongodb database is nil"), nil)
	}

	// 断点先写：中途失败时最多少记一个窗口，不会重复入账。
	if s.Checkpoint != nil {
		doc := model.CheckpointDoc{ID: model.CheckpointID, LastWindow: s.Checkpoint.LastWindow, Remainders: s.Checkpoint.Remainders}
		if err := r.upsert(ctx, collMeta, doc.ID, doc); err != nil {
			return err
		}
	}

	for _, p := range s.Players {
		if err := r.upsert(ctx, collPlayers, p.Player.ID, model.PlayerDocFromDomain(p)); err != nil {
			return err
		}
	}
	for _, v := range s.Regions {
		if err := r.upsert(ctx, collRegions, v.Name, v); err != nil {
			return err
		}
	}
	for _, v := range s.Alliances {
		if err := r.upsert(ctx, collAlliances, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range s.Wars {
		if err := r.upsert(ctx, collWars, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range s.Buildings {
		if err := r.upsert(ctx, collBuildings, v.ID, v); err != nil {
			return err
		}
	}
	for _, v := range s.Armies {
		if err := r.upsert(ctx, collArmies, v.ID, v); err != nil {
			return err
		}
	}

	if err := deleteIDs(ctx, r.db, collPlayers, s.Removed.Players); err != nil {
		return err
	}
	if err := deleteIDs(ctx, r.db, collBuildings, s.Removed.Buildings); err != nil {
		return err
	}
	if err := deleteIDs(ctx, r.db, collArmies, s.Removed.Armies); err != nil {
		return err
	}

	return nil
}

func (r *WorldRepository) upsert(ctx context.Context, coll string, id any, doc any) error {
	_, err := r.db.Collection(coll).ReplaceOne(
		ctx,
		bson.M{"_id": id},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errs.Wrap(OpSave, errs.KindInfra, err, map[string]any{"collection": coll, "id": id})
	}
	return nil
}

// deleteIDs 补偿回滚删除的实体，空列表不发请求。
func deleteIDs[K any](ctx context.Context, db *mongo.Database, coll string, ids []K) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := db.Collection(coll).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return errs.Wrap(OpSave, errs.KindInfra, err, map[string]any{"collection": coll})
	}
	return nil
}
