package store

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/imtaco/livecast/internal/constants"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/etcd"
	"github.com/imtaco/livecast/internal/log"
	"github.com/imtaco/livecast/sessions"
)

// etcdStore keeps one JSON document per session under <prefix>sessions/<id>.
// Every write is a Txn guarded by the key's ModRevision.
type etcdStore struct {
	kv     etcd.KV
	prefix string
	logger *log.Logger
}

func NewEtcdStore(kv etcd.KV, prefix string, logger *log.Logger) sessions.Store {
	return &etcdStore{
		kv:     kv,
		prefix: prefix,
		logger: logger,
	}
}

func (es *etcdStore) sessionsPrefix() string {
	return es.prefix + constants.StoreKeySessions + "/"
}

func (es *etcdStore) key(id string) string {
	return es.sessionsPrefix() + id
}

func (es *etcdStore) Create(ctx context.Context, s *sessions.Session) error {
	bs, err := encode(s)
	if err != nil {
		return err
	}

	key := es.key(s.ID)
	resp, err := es.kv.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(bs))).
		Commit()
	if err != nil {
		return errors.Wrapf(errors.ErrServer, err, "failed to create session %s", s.ID)
	}
	if !resp.Succeeded {
		return errors.Newf(errors.ErrConflict, "session %s already exists", s.ID)
	}

	s.Revision = resp.Header.Revision
	es.logger.Debug("session created", log.SessionID(s.ID), log.Int64("rev", s.Revision))
	return nil
}

func (es *etcdStore) Get(ctx context.Context, id string) (*sessions.Session, error) {
	resp, err := es.kv.Get(ctx, es.key(id))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrServer, err, "failed to get session %s", id)
	}
	if len(resp.Kvs) == 0 {
		return nil, notFound(id)
	}
	kv := resp.Kvs[0]
	return decode(kv.Value, kv.ModRevision)
}

func (es *etcdStore) Update(ctx context.Context, id string, mutate sessions.Mutation) (*sessions.Session, error) {
	key := es.key(id)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		cur, err := es.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		next := cur.Clone()
		changed, err := mutate(next)
		if err != nil {
			return nil, err
		}
		if !changed {
			return cur, nil
		}

		bs, err := encode(next)
		if err != nil {
			return nil, err
		}

		resp, err := es.kv.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(key), "=", cur.Revision)).
			Then(clientv3.OpPut(key, string(bs))).
			Commit()
		if err != nil {
			return nil, errors.Wrapf(errors.ErrServer, err, "failed to update session %s", id)
		}
		if resp.Succeeded {
			next.Revision = resp.Header.Revision
			return next, nil
		}

		es.logger.Debug("session update lost a race, retrying",
			log.SessionID(id),
			log.Int("attempt", attempt))
	}
	return nil, contended(id)
}

func (es *etcdStore) List(ctx context.Context, status sessions.Status) ([]*sessions.Session, error) {
	resp, err := es.kv.Get(ctx, es.sessionsPrefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrap(errors.ErrServer, err, "failed to list sessions")
	}

	out := make([]*sessions.Session, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		s, err := decode(kv.Value, kv.ModRevision)
		if err != nil {
			es.logger.Warn("skip undecodable session", log.String("key", string(kv.Key)), log.Error(err))
			continue
		}
		if s.Status == status {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}
