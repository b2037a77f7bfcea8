package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/docqa/internal/db"
)

func newMockStore(t *testing.T) (*Store, *mock.Client) {
	t.Helper()
	c := mock.NewClient(gomock.NewController(t))
	return NewStoreForTest(c), c
}

func scanPage(cursor int64, keys ...string) rueidis.RedisResult {
	elems := make([]rueidis.RedisMessage, len(keys))
	for i, k := range keys {
		elems[i] = mock.RedisString(k)
	}
	return mock.Result(mock.RedisArray(mock.RedisInt64(cursor), mock.RedisArray(elems...)))
}

func chatHash(id string) rueidis.RedisResult {
	return mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
		"id":      mock.RedisString(id),
		"message": mock.RedisString("hello"),
	}))
}

func isDBError(err error, op string) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr) && dbErr.Op == op
}

// --- client.go ---

func TestPing(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG")))
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(errors.New("conn refused")))
	if err := s.Ping(context.Background()); !isDBError(err, db.OpPing) {
		t.Fatalf("expected PING db.Error, got %v", err)
	}
}

func TestWaitForReady_RetriesUntilPong(t *testing.T) {
	s, c := newMockStore(t)
	gomock.InOrder(
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.ErrorResult(errors.New("loading"))),
		c.EXPECT().Do(gomock.Any(), mock.Match("PING")).Return(mock.Result(mock.RedisString("PONG"))),
	)
	if err := s.WaitForReady(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("conn refused"))).AnyTimes()

	err := s.WaitForReady(context.Background(), 50*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error without addrs")
	}
}

// --- hash.go ---

func TestHSet(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return len(cmd) == 4 && cmd[0] == "HSET" && cmd[1] == "docqa:chat:alice:1" &&
				cmd[2] == "message" && cmd[3] == "hi"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	if err := s.HSet(context.Background(), "docqa:chat:alice:1", map[string]string{"message": "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_Error(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(errors.New("READONLY")))

	err := s.HSet(context.Background(), "k", map[string]string{"f": "v"})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpHSet || dbErr.Key != "k" {
		t.Fatalf("expected HSET db.Error on k, got %v", err)
	}
}

func TestScanHashes_MultiPage(t *testing.T) {
	s, c := newMockStore(t)
	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("SCAN", "0", "MATCH", "docqa:chat:alice:*", "COUNT", "200")).
			Return(scanPage(17, "docqa:chat:alice:1", "docqa:chat:alice:2")),
		// SCAN may return a key twice across pages
		c.EXPECT().
			Do(gomock.Any(), mock.Match("SCAN", "17", "MATCH", "docqa:chat:alice:*", "COUNT", "200")).
			Return(scanPage(0, "docqa:chat:alice:2", "docqa:chat:alice:3")),
		c.EXPECT().
			DoMulti(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]rueidis.RedisResult{
				chatHash("1"),
				mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{})), // deleted meanwhile
				chatHash("3"),
			}),
	)

	got, err := s.ScanHashes(context.Background(), "docqa:chat:alice:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 hashes, got %d: %v", len(got), got)
	}
	if got["docqa:chat:alice:3"]["id"] != "3" {
		t.Errorf("unexpected hash: %v", got["docqa:chat:alice:3"])
	}
	if _, ok := got["docqa:chat:alice:2"]; ok {
		t.Error("vanished key must be left out")
	}
}

func TestScanHashes_NoMatches(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "SCAN" })).
		Return(scanPage(0))

	got, err := s.ScanHashes(context.Background(), "docqa:chat:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil map, got %#v", got)
	}
}

func TestScanHashes_Errors(t *testing.T) {
	t.Run("scan", func(t *testing.T) {
		s, c := newMockStore(t)
		c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(context.DeadlineExceeded))
		if _, err := s.ScanHashes(context.Background(), "p*"); !isDBError(err, db.OpScan) {
			t.Fatalf("expected SCAN db.Error, got %v", err)
		}
	})

	t.Run("hgetall", func(t *testing.T) {
		s, c := newMockStore(t)
		c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(scanPage(0, "k1", "k2"))
		c.EXPECT().DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]rueidis.RedisResult{chatHash("1"), mock.ErrorResult(context.DeadlineExceeded)})

		_, err := s.ScanHashes(context.Background(), "k*")
		var dbErr *db.Error
		if !errors.As(err, &dbErr) || dbErr.Op != db.OpHGetAll || dbErr.Key != "k2" {
			t.Fatalf("expected HGETALL db.Error on k2, got %v", err)
		}
	})
}

func TestDel(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("DEL", "k1", "k2")).Return(mock.Result(mock.RedisInt64(2)))
	if err := s.Del(context.Background(), "k1", "k2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// no keys, no command
	if err := NewStoreForTest(nil).Del(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- kv.go ---

func TestGet(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("GET", "hit")).Return(mock.Result(mock.RedisBlobString("vec")))
	c.EXPECT().Do(gomock.Any(), mock.Match("GET", "miss")).Return(mock.Result(mock.RedisNil()))

	data, err := s.Get(context.Background(), "hit")
	if err != nil || string(data) != "vec" {
		t.Fatalf("Get(hit) = %q, %v", data, err)
	}
	if _, err := s.Get(context.Background(), "miss"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMGet(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().
		Do(gomock.Any(), mock.Match("MGET", "a", "b", "c")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisBlobString("va"),
			mock.RedisNil(),
			mock.RedisBlobString("vc"),
		)))

	got, err := s.MGet(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || string(got[0]) != "va" || got[1] != nil || string(got[2]) != "vc" {
		t.Fatalf("unexpected values: %q", got)
	}
}

func TestMGet_EmptyAndError(t *testing.T) {
	got, err := NewStoreForTest(nil).MGet(context.Background(), nil)
	if err != nil || got != nil {
		t.Fatalf("MGet(nil) = %v, %v", got, err)
	}

	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(errors.New("boom")))
	if _, err := s.MGet(context.Background(), []string{"a"}); !isDBError(err, db.OpMGet) {
		t.Fatalf("expected MGET db.Error, got %v", err)
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
		want []string
	}{
		{"no expiry", 0, []string{"SET", "k", "v"}},
		{"negative ttl means no expiry", -time.Second, []string{"SET", "k", "v"}},
		{"with expiry", time.Hour, []string{"SET", "k", "v", "EX", "3600"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match(tt.want...)).Return(mock.Result(mock.RedisString("OK")))
			if err := s.Set(context.Background(), "k", []byte("v"), tt.ttl); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSet_Error(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), gomock.Any()).Return(mock.ErrorResult(errors.New("OOM")))
	if err := s.Set(context.Background(), "k", []byte("v"), 0); !isDBError(err, db.OpSet) {
		t.Fatalf("expected SET db.Error, got %v", err)
	}
}

func TestError_Format(t *testing.T) {
	err := &db.Error{Op: db.OpGet, Key: "k", Err: errors.New("boom")}
	if err.Error() != "GET k: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
	err = &db.Error{Op: db.OpDel, Err: errors.New("boom")}
	if err.Error() != "DEL: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
