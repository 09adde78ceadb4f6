// Package fakes holds an in-memory etcd KV for tests. It keeps revisions per key
// and evaluates transaction comparisons the way the server does for single keys.
package fakes

import (
	"bytes"
	"context"
	"sort"
	"sync"

	pb "go.etcd.io/etcd/api/v3/etcdserverpb"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type EtcdKV struct {
	mu   sync.Mutex
	rev  int64
	data map[string]*mvccpb.KeyValue

	// Err, when set, is returned by every call.
	Err error
	// BeforeCommit runs before a transaction evaluates its comparisons, outside
	// the lock, so tests can slip in a competing write.
	BeforeCommit func()
}

func NewEtcdKV() *EtcdKV {
	return &EtcdKV{data: make(map[string]*mvccpb.KeyValue)}
}

func (f *EtcdKV) Get(_ context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(clientv3.OpGet(key, opts...)), nil
}

func (f *EtcdKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put([]byte(key), []byte(val))
	return &clientv3.PutResponse{Header: f.header()}, nil
}

func (f *EtcdKV) Delete(_ context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.delete(clientv3.OpDelete(key, opts...))
	return &clientv3.DeleteResponse{Header: f.header(), Deleted: n}, nil
}

func (f *EtcdKV) Txn(_ context.Context) clientv3.Txn {
	return &txn{kv: f}
}

func (f *EtcdKV) Rev() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rev
}

func (f *EtcdKV) header() *pb.ResponseHeader {
	return &pb.ResponseHeader{Revision: f.rev}
}

func (f *EtcdKV) inRange(op clientv3.Op, key []byte) bool {
	start, end := op.KeyBytes(), op.RangeBytes()
	if len(end) == 0 {
		return bytes.Equal(start, key)
	}
	// "\x00" as range end means every key >= start
	if bytes.Equal(end, []byte{0}) {
		return bytes.Compare(key, start) >= 0
	}
	return bytes.Compare(key, start) >= 0 && bytes.Compare(key, end) < 0
}

func (f *EtcdKV) get(op clientv3.Op) *clientv3.GetResponse {
	var kvs []*mvccpb.KeyValue
	for k, kv := range f.data {
		if f.inRange(op, []byte(k)) {
			cp := *kv
			kvs = append(kvs, &cp)
		}
	}
	sort.Slice(kvs, func(i, j int) bool { return bytes.Compare(kvs[i].Key, kvs[j].Key) < 0 })

	resp := &clientv3.GetResponse{Header: f.header(), Count: int64(len(kvs))}
	if !op.IsCountOnly() {
		resp.Kvs = kvs
	}
	return resp
}

func (f *EtcdKV) put(key, val []byte) {
	f.rev++
	cur, ok := f.data[string(key)]
	if !ok {
		f.data[string(key)] = &mvccpb.KeyValue{
			Key:            key,
			Value:          val,
			CreateRevision: f.rev,
			ModRevision:    f.rev,
			Version:        1,
		}
		return
	}
	cur.Value = val
	cur.ModRevision = f.rev
	cur.Version++
}

func (f *EtcdKV) delete(op clientv3.Op) int64 {
	var n int64
	for k := range f.data {
		if f.inRange(op, []byte(k)) {
			delete(f.data, k)
			n++
		}
	}
	if n > 0 {
		f.rev++
	}
	return n
}

func (f *EtcdKV) compare(c clientv3.Cmp) bool {
	kv, ok := f.data[string(c.KeyBytes())]

	var result int
	switch c.Target {
	case pb.Compare_VERSION:
		var v int64
		if ok {
			v = kv.Version
		}
		result = compareInt(v, c.TargetUnion.(*pb.Compare_Version).Version)
	case pb.Compare_CREATE:
		var v int64
		if ok {
			v = kv.CreateRevision
		}
		result = compareInt(v, c.TargetUnion.(*pb.Compare_CreateRevision).CreateRevision)
	case pb.Compare_MOD:
		var v int64
		if ok {
			v = kv.ModRevision
		}
		result = compareInt(v, c.TargetUnion.(*pb.Compare_ModRevision).ModRevision)
	case pb.Compare_VALUE:
		if !ok {
			return false
		}
		result = bytes.Compare(kv.Value, c.TargetUnion.(*pb.Compare_Value).Value)
	default:
		return false
	}

	switch c.Result {
	case pb.Compare_EQUAL:
		return result == 0
	case pb.Compare_NOT_EQUAL:
		return result != 0
	case pb.Compare_GREATER:
		return result > 0
	case pb.Compare_LESS:
		return result < 0
	}
	return false
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (f *EtcdKV) apply(op clientv3.Op) *pb.ResponseOp {
	switch {
	case op.IsPut():
		f.put(op.KeyBytes(), op.ValueBytes())
		return &pb.ResponseOp{Response: &pb.ResponseOp_ResponsePut{
			ResponsePut: &pb.PutResponse{Header: f.header()},
		}}
	case op.IsDelete():
		n := f.delete(op)
		return &pb.ResponseOp{Response: &pb.ResponseOp_ResponseDeleteRange{
			ResponseDeleteRange: &pb.DeleteRangeResponse{Header: f.header(), Deleted: n},
		}}
	default:
		resp := f.get(op)
		return &pb.ResponseOp{Response: &pb.ResponseOp_ResponseRange{
			ResponseRange: (*pb.RangeResponse)(resp),
		}}
	}
}

type txn struct {
	kv    *EtcdKV
	cmps  []clientv3.Cmp
	thens []clientv3.Op
	elses []clientv3.Op
}

func (t *txn) If(cs ...clientv3.Cmp) clientv3.Txn {
	t.cmps = append(t.cmps, cs...)
	return t
}

func (t *txn) Then(ops ...clientv3.Op) clientv3.Txn {
	t.thens = append(t.thens, ops...)
	return t
}

func (t *txn) Else(ops ...clientv3.Op) clientv3.Txn {
	t.elses = append(t.elses, ops...)
	return t
}

func (t *txn) Commit() (*clientv3.TxnResponse, error) {
	f := t.kv
	if f.Err != nil {
		return nil, f.Err
	}
	if hook := f.BeforeCommit; hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ok := true
	for _, c := range t.cmps {
		if !f.compare(c) {
			ok = false
			break
		}
	}

	ops := t.elses
	if ok {
		ops = t.thens
	}
	resp := &clientv3.TxnResponse{Succeeded: ok}
	for _, op := range ops {
		resp.Responses = append(resp.Responses, f.apply(op))
	}
	resp.Header = f.header()
	return resp, nil
}
