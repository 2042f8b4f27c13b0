package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/threadio/internal/testutil"
	tierrors "github.com/vnykmshr/threadio/pkg/common/errors"
)

func TestRedisSinkAppend(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := Create(Config{Kind: KindRedis, Redis: RedisConfig{Addr: mr.Addr(), Key: "out"}})
	testutil.AssertNoError(t, err)

	_, err = s.Write([]byte("hello "))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, mr.Exists("out"), false)

	testutil.AssertNoError(t, s.Flush())
	_, err = s.Write([]byte("world"))
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, s.Flush())
	// Nothing buffered, nothing sent
	testutil.AssertNoError(t, s.Flush())

	got, err := mr.Get("out")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, "hello world")
	testutil.AssertNoError(t, s.Close())
}

func TestRedisSinkList(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s, err := NewRedis(RedisConfig{Client: client, Key: "chunks", Mode: RedisList, TTL: time.Minute})
	testutil.AssertNoError(t, err)

	for _, part := range []string{"a", "bc", "def"} {
		_, err := s.Write([]byte(part))
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, s.Flush())
	}
	testutil.AssertNoError(t, s.Close())

	list, err := mr.List("chunks")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(list), 3)
	testutil.AssertEqual(t, list[2], "def")
	testutil.AssertEqual(t, mr.TTL("chunks"), time.Minute)

	// The caller's client stays usable.
	testutil.AssertNoError(t, client.Ping(context.Background()).Err())
}

func TestRedisSinkFlushFailureKeepsBuffer(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedis(RedisConfig{Addr: mr.Addr(), Key: "out", Timeout: 500 * time.Millisecond})
	testutil.AssertNoError(t, err)
	defer s.Close()

	_, err = s.Write([]byte("keep me"))
	testutil.AssertNoError(t, err)

	mr.SetError("ERR injected failure")
	testutil.AssertError(t, s.Flush())
	testutil.AssertEqual(t, s.Buffered(), 7)

	mr.SetError("")
	testutil.AssertNoError(t, s.Flush())
	testutil.AssertEqual(t, s.Buffered(), 0)
	got, err := mr.Get("out")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, got, "keep me")
}

func TestRedisSinkConfigErrors(t *testing.T) {
	_, err := NewRedis(RedisConfig{Addr: "localhost:0"})
	testutil.AssertEqual(t, tierrors.IsValidationError(err), true)

	_, err = NewRedis(RedisConfig{Key: "k"})
	testutil.AssertEqual(t, tierrors.IsValidationError(err), true)

	_, err = NewRedis(RedisConfig{Addr: "localhost:0", Key: "k", Mode: "stream"})
	testutil.AssertErrorText(t, err, `unsupported redis mode "stream"`)
}

func TestRedisSinkConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(RedisConfig{Addr: addr, Key: "k", Timeout: time.Second})
	testutil.AssertError(t, err)

	var opErr *tierrors.OperationError
	testutil.AssertEqual(t, errors.As(err, &opErr), true)
	testutil.AssertEqual(t, opErr.Operation, "redis_connect")
	testutil.AssertEqual(t, opErr.Context, addr)
}
