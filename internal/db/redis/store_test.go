package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/gamedex/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), 250*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpPing {
		t.Errorf("last ping error missing from %v", err)
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("PING")).
			Return(mock.ErrorResult(errors.New("loading"))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("PING")).
			Return(mock.Result(mock.RedisString("PONG"))),
	)

	s := NewStoreForTest(c)
	if err := s.WaitForReady(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_ErrorCarriesOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("refused")))

	err := NewStoreForTest(c).Ping(context.Background())
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpPing {
		t.Fatalf("err = %v, want *db.Error with op PING", err)
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "gamedex:index:current")).
		Return(mock.Result(mock.RedisString(`{"generation":"g1"}`)))

	s := NewStoreForTest(c)
	got, err := s.Get(context.Background(), "gamedex:index:current")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"generation":"g1"}` {
		t.Errorf("got %q", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "missing")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "k")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "k")
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "k", "v")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	if err := s.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExpire_RoundsToSeconds(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXPIRE", "k", "86400")).
			Return(mock.Result(mock.RedisInt64(1))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("EXPIRE", "k", "1")).
			Return(mock.Result(mock.RedisInt64(1))),
	)

	s := NewStoreForTest(c)
	if err := s.Expire(context.Background(), "k", 24*time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Expire(context.Background(), "k", 10*time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- hash.go tests ---

func TestHSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "mykey" && len(cmd) == 4
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	if err := s.HSet(context.Background(), "mykey", map[string]string{"0": "42"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_EmptyIsNoop(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	if err := s.HSet(context.Background(), "k", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "ord")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"0": mock.RedisString("10"),
			"1": mock.RedisString("20"),
		})))

	s := NewStoreForTest(c)
	m, err := s.HGetAll(context.Background(), "ord")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m) != 2 || m["0"] != "10" || m["1"] != "20" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestDelAndExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "k")).
		Return(mock.Result(mock.RedisInt64(1)))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", "k")).
		Return(mock.Result(mock.RedisInt64(0)))

	s := NewStoreForTest(c)
	if err := s.Del(context.Background(), "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, err := s.Exists(context.Background(), "k")
	if err != nil || ok {
		t.Fatalf("exists = %v, err = %v", ok, err)
	}
}

// --- tx.go tests ---

func TestAtomic_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("MULTI"),
			mock.Match("DEL", "ord"),
			mock.Match("HSET", "ord", "0", "42"),
			mock.Match("SET", "cur", "g2"),
			mock.Match("EXPIRE", "old", "3600"),
			mock.Match("EXEC"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisArray(
				mock.RedisInt64(0),
				mock.RedisInt64(1),
				mock.RedisString("OK"),
				mock.RedisInt64(1),
			)),
		})

	s := NewStoreForTest(c)
	err := s.Atomic(context.Background(),
		db.Del("ord"),
		db.HSet("ord", map[string]string{"0": "42"}),
		db.Set("cur", []byte("g2")),
		db.Expire("old", time.Hour),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAtomic_Aborted(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisString("QUEUED")),
			mock.Result(mock.RedisNil()),
		})

	s := NewStoreForTest(c)
	err := s.Atomic(context.Background(), db.Set("cur", []byte("g2")))
	if !errors.Is(err, db.ErrTxAborted) {
		t.Fatalf("expected ErrTxAborted, got %v", err)
	}
}

func TestAtomic_QueueError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.ErrorResult(errors.New("connection reset")),
			mock.ErrorResult(errors.New("connection reset")),
		})

	s := NewStoreForTest(c)
	err := s.Atomic(context.Background(), db.Del("k"))
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestAtomic_RejectsEmptyHSet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl) // no DoMulti expected

	s := NewStoreForTest(c)
	if err := s.Atomic(context.Background(), db.HSet("k", nil)); err == nil {
		t.Fatal("expected error for empty HSET")
	}
}

func TestAtomic_Empty(t *testing.T) {
	s := NewStoreForTest(nil)
	if err := s.Atomic(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- helpers ---

// isDBError is a test helper for checking wrapped db.Error.
func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
