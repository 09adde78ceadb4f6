package store

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/spf13/viper"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/sessions"
)

const (
	DriverEtcd  = "etcd"
	DriverRedis = "redis"

	// maxAttempts bounds how often Update re-reads after losing a race.
	maxAttempts = 5
)

type Config struct {
	Driver      string `mapstructure:"driver"`
	EtcdPrefix  string `mapstructure:"etcd_prefix"`
	RedisPrefix string `mapstructure:"redis_prefix"`
	CacheSize   int    `mapstructure:"cache_size"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("driver"), DriverEtcd)
	v.SetDefault(p("etcd_prefix"), "/livecast/")
	v.SetDefault(p("redis_prefix"), "livecast:")
	v.SetDefault(p("cache_size"), 1024)
}

func encode(s *sessions.Session) ([]byte, error) {
	bs, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrServer, err, "failed to marshal session %s", s.ID)
	}
	return bs, nil
}

func decode(bs []byte, rev int64) (*sessions.Session, error) {
	var s sessions.Session
	if err := json.Unmarshal(bs, &s); err != nil {
		return nil, errors.Wrap(errors.ErrServer, err, "failed to unmarshal session")
	}
	s.Revision = rev
	return &s, nil
}

func notFound(id string) error {
	return errors.Newf(errors.ErrNotFound, "session %s not found", id)
}

func contended(id string) error {
	return errors.Newf(errors.ErrConflict, "session %s is being modified concurrently", id)
}

// sortTime is the index position of s within its status.
func sortTime(s *sessions.Session) time.Time {
	if s.Status == sessions.StatusEnded && s.EndedAt != nil {
		return *s.EndedAt
	}
	return s.StartedAt
}

func sortNewestFirst(list []*sessions.Session) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, tj := sortTime(list[i]), sortTime(list[j])
		if ti.Equal(tj) {
			return list[i].ID > list[j].ID
		}
		return ti.After(tj)
	})
}

// hasKind tells mutation and store errors, which are already classified, from raw
// driver errors.
func hasKind(err error) bool {
	_, ok := errors.As[*errors.Error](err)
	return ok
}
