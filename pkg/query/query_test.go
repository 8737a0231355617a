package query

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockapi/pkg/record"
	"github.com/getmockd/mockapi/pkg/store"
)

func rec(kv ...any) *record.Record {
	r := record.New()
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}

func ids(records []*record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}

func TestParseParams(t *testing.T) {
	q, err := url.ParseQuery("_page=2&_limit=5&_sort=age,name&_order=desc&_search=ann&_embed=posts,,comments&_expand=user&age_gte=18&name=ann&age_gte=21")
	require.NoError(t, err)
	p := ParseParams(q)

	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 5, p.Limit)
	assert.Equal(t, 5, p.Offset())
	assert.Equal(t, "ann", p.Search)
	assert.Equal(t, []SortKey{{Field: "age", Desc: true}, {Field: "name"}}, p.Sort)
	assert.Equal(t, []string{"posts", "comments"}, p.Embed)
	assert.Equal(t, []string{"user"}, p.Expand)
	assert.ElementsMatch(t, []Filter{
		{Field: "age", Op: OpGTE, Value: "18"},
		{Field: "age", Op: OpGTE, Value: "21"},
		{Field: "name", Op: OpMatch, Value: "ann"},
	}, p.Filters)
}

func TestParseParams_Defaults(t *testing.T) {
	for _, raw := range []string{"", "_page=0&_limit=-2", "_page=x&_limit=y"} {
		q, _ := url.ParseQuery(raw)
		p := ParseParams(q)
		assert.Equal(t, DefaultPage, p.Page, raw)
		assert.Equal(t, DefaultLimit, p.Limit, raw)
		assert.Empty(t, p.Filters, raw)
	}
}

func TestApplyFilters(t *testing.T) {
	records := []*record.Record{
		rec("id", "1", "name", "Ann Smith", "age", 17, "active", true, "tags", []any{"Admin", "ops"}),
		rec("id", "2", "name", "Bob", "age", 30, "active", false, "tags", []any{float64(7)}),
		rec("id", "3", "name", "annie", "age", 45, "active", true, "meta", map[string]any{"a": "b"}),
		rec("id", "4", "name", nil, "age", "n/a"),
	}

	tests := []struct {
		name    string
		filters []Filter
		want    []string
	}{
		{name: "string contains ignoring case", filters: []Filter{{Field: "name", Value: "ANN"}}, want: []string{"1", "3"}},
		{name: "number equality", filters: []Filter{{Field: "age", Value: "30"}}, want: []string{"2"}},
		{name: "number not substring", filters: []Filter{{Field: "age", Value: "3"}}, want: []string{}},
		{name: "boolean", filters: []Filter{{Field: "active", Value: "TRUE"}}, want: []string{"1", "3"}},
		{name: "array substring", filters: []Filter{{Field: "tags", Value: "adm"}}, want: []string{"1"}},
		{name: "array loose equality", filters: []Filter{{Field: "tags", Value: "7"}}, want: []string{"2"}},
		{name: "null field excluded", filters: []Filter{{Field: "name", Value: "null"}}, want: []string{}},
		{name: "missing field excluded", filters: []Filter{{Field: "email", Value: "x"}}, want: []string{}},
		{name: "gte numeric", filters: []Filter{{Field: "age", Op: OpGTE, Value: "30"}}, want: []string{"2", "3"}},
		{name: "lt numeric", filters: []Filter{{Field: "age", Op: OpLT, Value: "30"}}, want: []string{"1"}},
		{name: "range", filters: []Filter{{Field: "age", Op: OpGT, Value: "17"}, {Field: "age", Op: OpLTE, Value: "45"}}, want: []string{"2", "3"}},
		{name: "raw string comparison", filters: []Filter{{Field: "name", Op: OpGTE, Value: "B"}}, want: []string{"2", "3"}},
		{name: "ne", filters: []Filter{{Field: "age", Op: OpNE, Value: "30"}}, want: []string{"1", "3", "4"}},
		{name: "ne on missing field", filters: []Filter{{Field: "email", Op: OpNE, Value: "x"}}, want: []string{"1", "2", "3", "4"}},
		{name: "id filter", filters: []Filter{{Field: "id", Value: "3"}}, want: []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ApplyFilters(records, tt.filters)))
		})
	}
}

func TestApplyFilters_RepeatedFilterIsIdempotent(t *testing.T) {
	var records []*record.Record
	for i := range 30 {
		records = append(records, rec("id", fmt.Sprint(i), "age", i))
	}

	once := ApplyFilters(records, []Filter{{Field: "age", Op: OpGTE, Value: "18"}})
	q, _ := url.ParseQuery("age_gte=18&age_gte=18")
	twice := ApplyFilters(records, ParseParams(q).Filters)

	assert.Equal(t, ids(once), ids(twice))
	assert.Len(t, once, 12)
}

func TestApplySearch(t *testing.T) {
	records := []*record.Record{
		rec("id", "1", "title", "Hello World"),
		rec("id", "2", "title", "other", "views", 1234),
		rec("id", "3", "title", "nothing", "nested", map[string]any{"title": "hello"}),
	}

	assert.Equal(t, []string{"1"}, ids(ApplySearch(records, "WORLD")))
	assert.Equal(t, []string{"2"}, ids(ApplySearch(records, "23")))
	assert.Equal(t, []string{"1"}, ids(ApplySearch(records, "hello")), "nested objects are not searched")
	assert.Len(t, ApplySearch(records, ""), 3)
}

func TestSortRecords_Stable(t *testing.T) {
	records := []*record.Record{
		rec("id", 1, "a", 1),
		rec("id", 2, "a", 1),
		rec("id", 3, "a", 0),
	}
	SortRecords(records, []SortKey{{Field: "a"}})
	assert.Equal(t, []string{"3", "1", "2"}, ids(records))
}

func TestSortRecords_MultiFieldAndNulls(t *testing.T) {
	records := []*record.Record{
		rec("id", "a", "group", "x", "score", 5),
		rec("id", "b", "group", nil, "score", 9),
		rec("id", "c", "group", "x", "score", 7),
		rec("id", "d", "group", "w", "score", 1),
		rec("id", "e", "score", 3),
	}

	asc := append([]*record.Record(nil), records...)
	SortRecords(asc, []SortKey{{Field: "group"}, {Field: "score", Desc: true}})
	assert.Equal(t, []string{"d", "c", "a", "b", "e"}, ids(asc))

	desc := append([]*record.Record(nil), records...)
	SortRecords(desc, []SortKey{{Field: "group", Desc: true}})
	assert.Equal(t, []string{"a", "c", "d", "b", "e"}, ids(desc), "nulls stay last when descending")
}

func TestPaginate(t *testing.T) {
	var records []*record.Record
	for i := range 23 {
		records = append(records, rec("id", fmt.Sprint(i+1)))
	}

	page, meta := Paginate(records, 3, 10)
	assert.Len(t, page, 3)
	assert.Equal(t, Pagination{Page: 3, Limit: 10, Total: 23, TotalPages: 3}, meta)
	assert.Equal(t, []string{"21", "22", "23"}, ids(page))

	page, meta = Paginate(records, 1, 10)
	assert.Len(t, page, 10)
	assert.Equal(t, "1", page[0].ID())

	page, meta = Paginate(records, 9, 10)
	assert.NotNil(t, page)
	assert.Empty(t, page)
	assert.Equal(t, 3, meta.TotalPages)

	page, _ = Paginate(records, 1<<62, 1<<20)
	assert.Empty(t, page)

	page, meta = Paginate(nil, 1, 10)
	assert.Empty(t, page)
	assert.Equal(t, 0, meta.TotalPages)

	t.Run("limit near MaxInt", func(t *testing.T) {
		q, _ := url.ParseQuery("_limit=9223372036854775807&_page=2")
		p := ParseParams(q)
		require.Equal(t, math.MaxInt, p.Limit)
		assert.Equal(t, math.MaxInt, p.Offset())

		page, meta := Paginate(records[:5], 1, p.Limit)
		assert.Len(t, page, 5)
		assert.Equal(t, Pagination{Page: 1, Limit: math.MaxInt, Total: 5, TotalPages: 1}, meta)

		page, meta = Paginate(records[:5], p.Page, p.Limit)
		assert.Empty(t, page)
		assert.Equal(t, 1, meta.TotalPages)
	})
}

func TestSingular(t *testing.T) {
	assert.Equal(t, "user", Singular("users"))
	assert.Equal(t, "categorie", Singular("categories"))
	assert.Equal(t, "shee", Singular("sheep"))
	assert.Equal(t, "", Singular(""))
	assert.Equal(t, "userId", ForeignKey("users"))
}

func newLoader(t *testing.T, collections map[string][]*record.Record) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	for name, recs := range collections {
		require.NoError(t, m.PutRecords(context.Background(), name, recs))
	}
	return m
}

func TestRun_EmbedAndExpand(t *testing.T) {
	users := []*record.Record{
		rec("id", "u1", "name", "Ann"),
		rec("id", "u2", "name", "Bob"),
	}
	posts := []*record.Record{
		rec("id", "p1", "userId", "u1", "title", "first"),
		rec("id", "p2", "userId", "u2", "title", "second"),
		rec("id", "p3", "userId", "u1", "title", "third"),
		rec("id", "p4", "userId", "ghost", "title", "orphan"),
	}
	loader := newLoader(t, map[string][]*record.Record{"users": users, "posts": posts})
	ctx := context.Background()

	t.Run("embed", func(t *testing.T) {
		q, _ := url.ParseQuery("_embed=posts")
		res, err := Run(ctx, loader, "users", record.CloneAll(users), ParseParams(q))
		require.NoError(t, err)
		require.Len(t, res.Data, 2)
		embedded, ok := res.Data[0].Value("posts").([]*record.Record)
		require.True(t, ok)
		assert.Equal(t, []string{"p1", "p3"}, ids(embedded))
	})

	t.Run("embed of unknown collection is empty", func(t *testing.T) {
		q, _ := url.ParseQuery("_embed=comments")
		res, err := Run(ctx, loader, "users", record.CloneAll(users), ParseParams(q))
		require.NoError(t, err)
		v, ok := res.Data[0].Get("comments")
		require.True(t, ok)
		assert.Empty(t, v)
	})

	t.Run("expand", func(t *testing.T) {
		q, _ := url.ParseQuery("_expand=users")
		res, err := Run(ctx, loader, "posts", record.CloneAll(posts), ParseParams(q))
		require.NoError(t, err)
		require.Len(t, res.Data, 4)

		owner, ok := res.Data[0].Value("user").(*record.Record)
		require.True(t, ok)
		assert.Equal(t, "Ann", owner.Value("name"))

		_, ok = res.Data[3].Get("user")
		assert.False(t, ok, "dangling reference adds no key")
	})
}

func TestEmbedExpand_KeysCompareAsStrings(t *testing.T) {
	related := map[string][]*record.Record{
		"users": {rec("id", "1", "name", "Ann")},
		"posts": {rec("id", "p1", "userId", float64(1)), rec("id", "p2", "userId", "2")},
	}

	users := []*record.Record{rec("id", "1")}
	Embed(users, "users", related, []string{"posts"})
	embedded, ok := users[0].Value("posts").([]*record.Record)
	require.True(t, ok)
	assert.Equal(t, []string{"p1"}, ids(embedded))

	posts := record.CloneAll(related["posts"])
	Expand(posts, related, []string{"users"})
	owner, ok := posts[0].Value("user").(*record.Record)
	require.True(t, ok)
	assert.Equal(t, "Ann", owner.Value("name"))
	_, ok = posts[1].Get("user")
	assert.False(t, ok)
}

func TestRun_Pipeline(t *testing.T) {
	var records []*record.Record
	for i := range 23 {
		records = append(records, rec("id", fmt.Sprint(i+1), "n", i%5, "label", fmt.Sprintf("item-%02d", i)))
	}
	q, _ := url.ParseQuery("n_gte=1&_search=item&_sort=n&_order=desc&_page=2&_limit=5")
	res, err := Run(context.Background(), nil, "items", records, ParseParams(q))
	require.NoError(t, err)

	assert.Equal(t, Pagination{Page: 2, Limit: 5, Total: 18, TotalPages: 4}, res.Pagination)
	require.Len(t, res.Data, 5)
	for _, r := range res.Data {
		assert.LessOrEqual(t, r.Value("n"), float64(3))
	}
	assert.Equal(t, "1", records[0].ID(), "input order untouched")
}

type failingLoader struct{}

func (failingLoader) GetRecords(context.Context, string) ([]*record.Record, error) {
	return nil, errors.New("boom")
}

func TestRun_LoaderError(t *testing.T) {
	q, _ := url.ParseQuery("_embed=posts")
	_, err := Run(context.Background(), failingLoader{}, "users", []*record.Record{rec("id", "1")}, ParseParams(q))
	assert.Error(t, err)
}

func TestRun_EmptyDataMarshalsAsArray(t *testing.T) {
	res, err := Run(context.Background(), nil, "users", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Data)
}
