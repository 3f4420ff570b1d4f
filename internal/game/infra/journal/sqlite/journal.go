package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"Regnum/internal/game/domain"
	"Regnum/internal/game/errs"
	"Regnum/internal/game/event"
	"Regnum/modules/kit/logx"

	"go.uber.org/zap"
)

const (
	OpInit   = "journal.Init"
	OpAppend = "journal.Append"
	OpSince  = "journal.Since"
)

const defaultSinceLimit = 200

const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq       INTEGER PRIMARY KEY AUTOINCREMENT,
	kind      TEXT    NOT NULL,
	player_id TEXT    NOT NULL DEFAULT '',
	region    TEXT    NOT NULL DEFAULT '',
	ref       INTEGER NOT NULL DEFAULT 0,
	at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_player ON events(player_id, seq);
`

// Journal 变更流水：给事件分配持久序号，断线重连的客户端用 Since 追上再接实时推送。
type Journal struct {
	db *sql.DB
}

func New(ctx context.Context, db *sql.DB) (*Journal, error) {
	if db == nil {
		return nil, errs.Wrap(OpInit, errs.KindInfra, errors.New("sqlite db is nil"), nil)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, errs.Wrap(OpInit, errs.KindInfra, err, nil)
	}
	return &Journal{db: db}, nil
}

// Append 返回持久序号。
func (j *Journal) Append(ctx context.Context, e event.Event) (uint64, error) {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO events(kind, player_id, region, ref, at) VALUES(?, ?, ?, ?, ?)`,
		string(e.Kind), string(e.PlayerID), e.Region, e.Ref, at.UnixMilli(),
	)
	if err != nil {
		return 0, errs.Wrap(OpAppend, errs.KindInfra, err, map[string]any{"kind": string(e.Kind)})
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, errs.Wrap(OpAppend, errs.KindInfra, err, nil)
	}
	return uint64(seq), nil
}

// Since 返回 seq 之后的事件（不含 seq），按序号升序，最多 limit 条。
func (j *Journal) Since(ctx context.Context, seq uint64, limit int) ([]event.Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = defaultSinceLimit
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, kind, player_id, region, ref, at FROM events WHERE seq > ? ORDER BY seq LIMIT ?`,
		int64(seq), limit,
	)
	if err != nil {
		return nil, errs.Wrap(OpSince, errs.KindInfra, err, map[string]any{"since": seq})
	}
	defer rows.Close()

	out := make([]event.Event, 0, limit)
	for rows.Next() {
		var (
			e        event.Event
			kind     string
			playerID string
			atMs     int64
		)
		if err := rows.Scan(&e.Seq, &kind, &playerID, &e.Region, &e.Ref, &atMs); err != nil {
			return nil, errs.Wrap(OpSince, errs.KindInfra, err, nil)
		}
		e.Kind = event.Kind(kind)
		e.PlayerID = domain.PlayerID(playerID)
		e.At = time.UnixMilli(atMs)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(OpSince, errs.KindInfra, err, nil)
	}
	return out, nil
}

// Run 消费订阅直到 ctx 结束或订阅关闭。落盘成功后把带持久序号的事件交给 next（可以为空），
// 实时推送和 Since 补拉用的是同一套序号，重启后也接得上。写失败只记日志，不影响引擎。
func (j *Journal) Run(ctx context.Context, sub *event.Subscription, l logx.Logger, next event.Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			seq, err := j.Append(ctx, e)
			if err != nil {
				if l != nil {
					l.Error("journal append failed", zap.String("kind", string(e.Kind)), zap.Error(err))
				}
				continue
			}
			if next != nil {
				e.Seq = seq
				next.Handle(e)
			}
		}
	}
}
