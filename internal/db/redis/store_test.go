package redis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/civica-cloud/agendex/internal/db"
)

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}

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

// --- hash.go tests ---

func TestHSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET" && cmd[1] == "mykey"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "mykey", map[string]string{"f1": "v1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHSet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "HSET"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.HSet(context.Background(), "mykey", map[string]string{"f": "v"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !isDBError(err) {
		t.Errorf("expected db.Error, got %T", err)
	}
}

func TestHSetMulti_Empty(t *testing.T) {
	s := NewStoreForTest(nil) // client not called
	if err := s.HSetMulti(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHGetAll_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGETALL", "mykey")).
		Return(mock.Result(mock.RedisMap(map[string]rueidis.RedisMessage{
			"f1": mock.RedisString("v1"),
			"f2": mock.RedisString("v2"),
		})))

	s := NewStoreForTest(c)
	m, err := s.HGetAll(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["f1"] != "v1" || m["f2"] != "v2" {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestScan_MultiPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := true
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisArray(
					mock.RedisInt64(42), // cursor=42 means more
					mock.RedisArray(mock.RedisString("key1")),
				))
			}
			return mock.Result(mock.RedisArray(
				mock.RedisInt64(0), // cursor=0 means done
				mock.RedisArray(mock.RedisString("key2")),
			))
		}).Times(2)

	s := NewStoreForTest(c)
	keys, err := s.Scan(context.Background(), "prefix:*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
}

// --- search.go tests ---

func TestSearchKNN_BuildsQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "FT.SEARCH" || cmd[1] != "idx" {
				return false
			}
			// Pre-filter wraps the KNN clause.
			if !strings.HasPrefix(cmd[2], "(@speaker:{Mayor\\ Lee})=>[KNN 4 @vector $BLOB") {
				return false
			}
			joined := strings.Join(cmd, " ")
			return strings.Contains(joined, "SORTBY __distance") &&
				strings.Contains(joined, "DIALECT 2")
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(1),
			mock.RedisString("p:chunk1"),
			mock.RedisArray(
				mock.RedisString("__distance"), mock.RedisString("0.2"),
				mock.RedisString("agenda_id"), mock.RedisString("a-1"),
			),
		)))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName:    "idx",
		Vector:       []float32{0.1, 0.2},
		K:            4,
		Filters:      []db.TagFilter{{Field: "speaker", Value: "Mayor Lee"}},
		ReturnFields: []string{"agenda_id"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 || len(res.Entries) != 1 {
		t.Fatalf("result = %+v", res)
	}
	entry := res.Entries[0]
	if entry.Key != "p:chunk1" || entry.Distance != 0.2 {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Fields["agenda_id"] != "a-1" {
		t.Errorf("fields = %v", entry.Fields)
	}
	if _, ok := entry.Fields["__distance"]; ok {
		t.Error("__distance should be stripped from fields")
	}
}

func TestSearchKNN_NoFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && strings.HasPrefix(cmd[2], "*=>[KNN 8 ")
		})).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(0))))

	s := NewStoreForTest(c)
	res, err := s.SearchKNN(context.Background(), &db.KNNQuery{
		IndexName: "idx",
		Vector:    []float32{0.1},
		K:         8,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Entries) != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestSearchKNN_Validation(t *testing.T) {
	s := NewStoreForTest(nil)

	cases := []*db.KNNQuery{
		{Vector: []float32{0.1}, K: 4},           // no index
		{IndexName: "idx", K: 4},                 // no vector
		{IndexName: "idx", Vector: []float32{1}}, // no k
	}
	for i, q := range cases {
		if _, err := s.SearchKNN(context.Background(), q); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestTagValues_Sorted(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.TAGVALS", "idx", "speaker")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("Mayor Lee"),
			mock.RedisString("Commissioner Park"),
		)))

	s := NewStoreForTest(c)
	values, err := s.TagValues(context.Background(), "idx", "speaker")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 2 || values[0] != "Commissioner Park" {
		t.Errorf("values = %v, want sorted", values)
	}
}

func TestBuildPreFilter(t *testing.T) {
	tests := []struct {
		name    string
		filters []db.TagFilter
		want    string
	}{
		{name: "empty", filters: nil, want: ""},
		{
			name:    "single",
			filters: []db.TagFilter{{Field: "speaker", Value: "Lee"}},
			want:    "@speaker:{Lee}",
		},
		{
			name: "multiple joined with space",
			filters: []db.TagFilter{
				{Field: "speaker", Value: "Lee"},
				{Field: "meeting_date", Value: "2026-04-02"},
			},
			want: "@speaker:{Lee} @meeting_date:{2026\\-04\\-02}",
		},
		{
			name:    "escapes special chars",
			filters: []db.TagFilter{{Field: "speaker", Value: "Mayor Lee"}},
			want:    "@speaker:{Mayor\\ Lee}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildPreFilter(tt.filters); got != tt.want {
				t.Errorf("buildPreFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVectorToBytes(t *testing.T) {
	got := vectorToBytes([]float32{1.0})
	// 1.0 as little-endian float32
	want := string([]byte{0x00, 0x00, 0x80, 0x3f})
	if got != want {
		t.Errorf("vectorToBytes = %x, want %x", got, want)
	}
	if len(vectorToBytes([]float32{1, 2, 3})) != 12 {
		t.Error("expected 4 bytes per element")
	}
}

// --- index.go tests ---

func TestCreateIndex_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(errors.New("connection reset")))

	s := NewStoreForTest(c)
	err := s.CreateIndex(context.Background(), &db.IndexDefinition{
		Name:   "idx",
		Fields: []db.IndexField{{Name: "speaker", Type: db.IndexFieldTag}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestIndexExists_True(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "idx")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("idx"))))

	s := NewStoreForTest(c)
	exists, err := s.IndexExists(context.Background(), "idx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected exists=true")
	}
}

func TestBuildCreateArgs(t *testing.T) {
	def := &db.IndexDefinition{
		Name:     "idx",
		Prefixes: []string{"p:"},
		Fields: []db.IndexField{
			{Name: "agenda_id", Type: db.IndexFieldTag},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         1536,
				VectorM:           16,
				VectorEFConstruct: 200,
			},
		},
	}

	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"idx ON HASH PREFIX 1 p: SCHEMA",
		"agenda_id TAG",
		"VECTOR HNSW",
		"DIM 1536",
		"DISTANCE_METRIC COSINE",
		"M 16",
		"EF_CONSTRUCTION 200",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestBuildCreateArgs_Invalid(t *testing.T) {
	if _, err := buildCreateArgs(&db.IndexDefinition{}); err == nil {
		t.Error("expected error for empty definition")
	}
	if _, err := buildCreateArgs(&db.IndexDefinition{
		Name:   "idx",
		Fields: []db.IndexField{{Name: "v", Type: db.IndexFieldVector}},
	}); err == nil {
		t.Error("expected error for vector field without DIM")
	}
}
