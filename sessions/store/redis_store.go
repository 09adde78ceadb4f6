package store

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/imtaco/livecast/internal/constants"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
	"github.com/imtaco/livecast/sessions"
)

const (
	fieldDoc = "doc"
	fieldRev = "rev"
)

// redisStore keeps each session as a hash {doc, rev} at <prefix>sessions:<id> and
// indexes ids per status in sorted sets scored by unix millis. Writes run under
// WATCH on the session hash.
type redisStore struct {
	client redis.UniversalClient
	prefix string
	logger *log.Logger
}

func NewRedisStore(client redis.UniversalClient, prefix string, logger *log.Logger) sessions.Store {
	return &redisStore{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (rs *redisStore) key(id string) string {
	return rs.prefix + constants.StoreKeySessions + ":" + id
}

func (rs *redisStore) indexKey(status sessions.Status) string {
	return rs.prefix + constants.StoreKeyIndex + ":" + string(status)
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func (rs *redisStore) read(ctx context.Context, c hashReader, id string) (*sessions.Session, error) {
	vals, err := c.HGetAll(ctx, rs.key(id)).Result()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrServer, err, "failed to get session %s", id)
	}
	doc, ok := vals[fieldDoc]
	if !ok {
		return nil, notFound(id)
	}
	rev, err := strconv.ParseInt(vals[fieldRev], 10, 64)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrServer, err, "bad revision for session %s", id)
	}
	return decode([]byte(doc), rev)
}

func (rs *redisStore) Create(ctx context.Context, s *sessions.Session) error {
	bs, err := encode(s)
	if err != nil {
		return err
	}

	key := rs.key(s.ID)
	err = rs.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return errors.Wrapf(errors.ErrServer, err, "failed to check session %s", s.ID)
		}
		if n > 0 {
			return errors.Newf(errors.ErrConflict, "session %s already exists", s.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldDoc, bs, fieldRev, 1)
			pipe.ZAdd(ctx, rs.indexKey(s.Status), redis.Z{
				Score:  float64(sortTime(s).UnixMilli()),
				Member: s.ID,
			})
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		s.Revision = 1
		rs.logger.Debug("session created", log.SessionID(s.ID))
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return errors.Newf(errors.ErrConflict, "session %s already exists", s.ID)
	case hasKind(err):
		return err
	default:
		return errors.Wrapf(errors.ErrServer, err, "failed to create session %s", s.ID)
	}
}

func (rs *redisStore) Get(ctx context.Context, id string) (*sessions.Session, error) {
	return rs.read(ctx, rs.client, id)
}

func (rs *redisStore) Update(ctx context.Context, id string, mutate sessions.Mutation) (*sessions.Session, error) {
	key := rs.key(id)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var result *sessions.Session

		err := rs.client.Watch(ctx, func(tx *redis.Tx) error {
			cur, err := rs.read(ctx, tx, id)
			if err != nil {
				return err
			}

			next := cur.Clone()
			changed, err := mutate(next)
			if err != nil {
				return err
			}
			if !changed {
				result = cur
				return nil
			}

			bs, err := encode(next)
			if err != nil {
				return err
			}
			next.Revision = cur.Revision + 1

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, fieldDoc, bs, fieldRev, next.Revision)
				if cur.Status != next.Status {
					pipe.ZRem(ctx, rs.indexKey(cur.Status), id)
				}
				pipe.ZAdd(ctx, rs.indexKey(next.Status), redis.Z{
					Score:  float64(sortTime(next).UnixMilli()),
					Member: id,
				})
				return nil
			})
			if err != nil {
				return err
			}
			result = next
			return nil
		}, key)

		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, redis.TxFailedErr):
			rs.logger.Debug("session update lost a race, retrying",
				log.SessionID(id),
				log.Int("attempt", attempt))
			continue
		case hasKind(err):
			return nil, err
		default:
			return nil, errors.Wrapf(errors.ErrServer, err, "failed to update session %s", id)
		}
	}
	return nil, contended(id)
}

func (rs *redisStore) List(ctx context.Context, status sessions.Status) ([]*sessions.Session, error) {
	ids, err := rs.client.ZRevRange(ctx, rs.indexKey(status), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(errors.ErrServer, err, "failed to list sessions")
	}
	if len(ids) == 0 {
		return []*sessions.Session{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = rs.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, rs.key(id))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrServer, err, "failed to load sessions")
	}

	out := make([]*sessions.Session, 0, len(ids))
	for i, cmd := range cmds {
		vals := cmd.Val()
		rev, _ := strconv.ParseInt(vals[fieldRev], 10, 64)
		s, err := decode([]byte(vals[fieldDoc]), rev)
		if err != nil {
			rs.logger.Warn("skip undecodable session", log.SessionID(ids[i]), log.Error(err))
			continue
		}
		// the index and the document are written together, but a stale index
		// entry must not leak a wrong status
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}
