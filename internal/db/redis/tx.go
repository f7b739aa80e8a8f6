package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/gamedex/internal/db"
)

// Atomic wraps the mutations in MULTI/EXEC and sends them in one DoMulti
// round-trip. Either every mutation is applied or none is.
func (s *Store) Atomic(ctx context.Context, muts ...db.Mutation) error {
	if len(muts) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(muts)+2)
	cmds = append(cmds, s.b().Multi().Build())
	for _, m := range muts {
		cmd, err := s.mutationCmd(m)
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, s.b().Exec().Build())

	results := s.client.DoMulti(ctx, cmds...)
	if len(results) != len(cmds) {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("expected %d replies, got %d", len(cmds), len(results))}
	}

	if err := results[0].Error(); err != nil {
		return &db.Error{Op: db.OpMulti, Err: err}
	}
	for i, res := range results[1 : len(results)-1] {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("queue %s: %w", muts[i].Key, err)}
		}
	}

	replies, err := results[len(results)-1].ToArray()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return &db.Error{Op: db.OpExec, Err: db.ErrTxAborted}
		}
		return &db.Error{Op: db.OpExec, Err: err}
	}
	for i, r := range replies {
		if err := r.Error(); err != nil {
			return &db.Error{Op: db.OpExec, Err: fmt.Errorf("%s: %w", muts[i].Key, err)}
		}
	}
	return nil
}

func (s *Store) mutationCmd(m db.Mutation) (rueidis.Completed, error) {
	switch m.Kind {
	case db.MutDel:
		return s.b().Del().Key(m.Key).Build(), nil
	case db.MutHSet:
		if len(m.Fields) == 0 {
			return rueidis.Completed{}, fmt.Errorf("hset %s: no fields", m.Key)
		}
		return s.hsetCmd(m.Key, m.Fields), nil
	case db.MutSet:
		return s.setCmd(m.Key, m.Value), nil
	case db.MutExpire:
		return s.expireCmd(m.Key, m.TTL), nil
	default:
		return rueidis.Completed{}, fmt.Errorf("unknown mutation kind %d", m.Kind)
	}
}
