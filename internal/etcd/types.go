package etcd

import (
	"context"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// KV is the subset of the etcd client the session store needs. *clientv3.Client
// satisfies it.
type KV interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error)
	Txn(ctx context.Context) clientv3.Txn
}
