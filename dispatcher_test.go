package bdispatch_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/advdv/bdispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ItemURL struct {
	ID int `json:"id"`
}

type SlugURL struct {
	Slug string `json:"slug"`
}

type CreateItem struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty" bdispatch:"sensitive"`
}

type Item struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

type Created struct {
	Status int   `bdispatch:"status"`
	Data   *Item `bdispatch:"data"`
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, hdrs ...string) *httptest.ResponseRecorder {
	t.Helper()

	rec, req := httptest.NewRecorder(), httptest.NewRequest(method, target, body)
	for i := 0; i+1 < len(hdrs); i += 2 {
		req.Header.Set(hdrs[i], hdrs[i+1])
	}

	h.ServeHTTP(rec, req)

	return rec
}

func text(s string) bdispatch.OperationFunc {
	return bdispatch.Sync(func(context.Context, *bdispatch.Input) (bdispatch.Result, error) {
		return bdispatch.Bytes([]byte(s), "text/plain"), nil
	})
}

func TestRegistrationOrderDecidesPrecedence(t *testing.T) {
	build := func(literalFirst bool) *bdispatch.Dispatcher {
		reg := bdispatch.NewRegistry(bdispatch.WithLogger(bdispatch.NewTestLogger(t)))
		register := []func(){
			func() { reg.Register("/items/new", nil).Get(nil, text("literal")) },
			func() { reg.Register("/items/{slug}", bdispatch.SchemaOf[SlugURL]()).Get(nil, text("wildcard")) },
		}

		if !literalFirst {
			register[0], register[1] = register[1], register[0]
		}

		for _, r := range register {
			r()
		}

		return reg.Build()
	}

	rec := do(t, build(true), http.MethodGet, "/items/new", nil)
	require.Equal(t, "literal", rec.Body.String())

	rec = do(t, build(false), http.MethodGet, "/items/new", nil)
	require.Equal(t, "wildcard", rec.Body.String())

	rec = do(t, build(true), http.MethodGet, "/items/other", nil)
	require.Equal(t, "wildcard", rec.Body.String())
}

func TestSegmentCountBuckets(t *testing.T) {
	reg := bdispatch.NewRegistry(bdispatch.WithLogger(bdispatch.NewTestLogger(t)))
	reg.Register("/", nil).Get(nil, text("root"))
	reg.Register("/a/{slug}", bdispatch.SchemaOf[SlugURL]()).Get(nil, text("two"))
	reg.Register("/a/{slug}/c", bdispatch.SchemaOf[SlugURL]()).Get(nil, text("three"))
	disp := reg.Build()

	require.Equal(t, "root", do(t, disp, http.MethodGet, "/", nil).Body.String())
	require.Equal(t, "two", do(t, disp, http.MethodGet, "/a/b", nil).Body.String())
	require.Equal(t, "two", do(t, disp, http.MethodGet, "/a/b/", nil).Body.String())
	require.Equal(t, "three", do(t, disp, http.MethodGet, "/a/b/c", nil).Body.String())
	require.Equal(t, http.StatusNotFound, do(t, disp, http.MethodGet, "/a/b/d", nil).Code)
	require.Equal(t, http.StatusNotFound, do(t, disp, http.MethodGet, "/a/b/c/d/e", nil).Code)
}

func TestUnhandledRequests(t *testing.T) {
	reg := bdispatch.NewRegistry(bdispatch.WithLogger(bdispatch.NewTestLogger(t)))
	reg.Register("/items/{id}", bdispatch.SchemaOf[ItemURL]()).Get(nil, text("ok"))
	disp := reg.Build()

	t.Run("dispatch reports unhandled and writes nothing", func(t *testing.T) {
		rec, req := httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil)
		require.False(t, disp.Dispatch(rec, req))
		require.Empty(t, rec.Header())
		require.Zero(t, rec.Body.Len())
		require.False(t, rec.Flushed)
	})

	t.Run("serve http falls back to not found", func(t *testing.T) {
		rec := do(t, disp, http.MethodGet, "/items/1/2", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("custom not found handler", func(t *testing.T) {
		reg := bdispatch.NewRegistry(bdispatch.WithNotFoundHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})))

		rec := do(t, reg.Build(), http.MethodGet, "/", nil)
		require.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func TestMatchRemainder(t *testing.T) {
	type FileURL struct {
		Path string `json:"path"`
	}

	type PartsURL struct {
		Parts []string `json:"parts"`
	}

	echo := bdispatch.Typed(func(_ context.Context, _ *struct{}, url *FileURL, _ *struct{}) (bdispatch.Result, error) {
		return bdispatch.Bytes([]byte(url.Path), "text/plain"), nil
	})

	reg := bdispatch.NewRegistry(bdispatch.WithLogger(bdispatch.NewTestLogger(t)))
	reg.Register("/files/{path}", bdispatch.SchemaOf[FileURL]()).MatchRemainder().Get(nil, echo)
	reg.Register("/files/{path}/meta", bdispatch.SchemaOf[FileURL]()).Get(nil, text("meta"))
	reg.Register("/parts/{parts}", bdispatch.SchemaOf[PartsURL]()).MatchRemainder().
		Get(nil, bdispatch.Typed(func(_ context.Context, _ *struct{}, url *PartsURL, _ *struct{}) (bdispatch.Result, error) {
			return bdispatch.Bytes([]byte(strings.Join(url.Parts, "|")), "text/plain"), nil
		}))
	disp := reg.Build()

	require.Equal(t, "a", do(t, disp, http.MethodGet, "/files/a", nil).Body.String())
	require.Equal(t, "a/b/c", do(t, disp, http.MethodGet, "/files/a/b/c", nil).Body.String())
	require.Equal(t, "meta", do(t, disp, http.MethodGet, "/files/a/meta", nil).Body.String())
	require.Equal(t, "x|y|z", do(t, disp, http.MethodGet, "/parts/x/y/z", nil).Body.String())

	routes := disp.Routes()
	require.Len(t, routes, 3)
	require.True(t, routes[0].Remainder)
	require.False(t, routes[1].Remainder)

	require.PanicsWithValue(t, "bdispatch: pattern /files/{path}/meta does not end in a wildcard", func() {
		bdispatch.NewRegistry().Register("/files/{path}/meta", bdispatch.SchemaOf[FileURL]()).MatchRemainder()
	})
}

func TestRegistryPanics(t *testing.T) {
	t.Run("duplicate verb", func(t *testing.T) {
		reg := bdispatch.NewRegistry()
		reg.Register("/a", nil).Get(nil, text("a"))
		require.PanicsWithValue(t, "bdispatch: GET /a is already registered", func() {
			reg.Register("/a", nil).Get(nil, text("b"))
		})
	})

	t.Run("same pattern with a different url schema", func(t *testing.T) {
		reg := bdispatch.NewRegistry()
		reg.Register("/a/{id}", bdispatch.SchemaOf[ItemURL]()).Get(nil, text("a"))
		require.Panics(t, func() {
			reg.Register("/a/{id}", bdispatch.SchemaOf[SlugURL]())
		})

		reg.Register("/a/{id}", bdispatch.SchemaOf[ItemURL]()).Post(bdispatch.NoBody(), nil, text("b"))
		require.Len(t, reg.Routes(), 1)
		require.Len(t, reg.Routes()[0].Operations, 2)
	})

	t.Run("wildcard without field", func(t *testing.T) {
		require.PanicsWithValue(t, `bdispatch: pattern "/a/{name}": wildcard "name" has no field in ItemURL`, func() {
			bdispatch.NewRegistry().Register("/a/{name}", bdispatch.SchemaOf[ItemURL]())
		})
	})

	t.Run("bad pattern", func(t *testing.T) {
		require.Panics(t, func() { bdispatch.NewRegistry().Register("a/b", nil) })
		require.Panics(t, func() { bdispatch.NewRegistry().Register("/a/{x}/{x}", nil) })
	})

	t.Run("unsupported query field", func(t *testing.T) {
		type Query struct {
			Ch chan int `json:"ch"`
		}

		require.Panics(t, func() {
			bdispatch.NewRegistry().Register("/a", nil).Get(bdispatch.SchemaOf[Query](), text("a"))
		})
	})

	t.Run("use after register", func(t *testing.T) {
		reg := bdispatch.NewRegistry()
		reg.Register("/a", nil).Get(nil, text("a"))
		require.PanicsWithValue(t, "bdispatch: cannot call Use() after registering operations", func() {
			reg.Use(func(next bdispatch.OperationFunc) bdispatch.OperationFunc { return next })
		})
	})

	t.Run("duplicate name", func(t *testing.T) {
		reg := bdispatch.NewRegistry()
		reg.Register("/a", nil).Name("a")
		require.Panics(t, func() { reg.Register("/b", nil).Name("a") })
	})
}

func TestBuildFreezes(t *testing.T) {
	logs := bdispatch.NewTestLogger(t)
	reg := bdispatch.NewRegistry(bdispatch.WithLogger(logs))
	reg.Register("/a", nil).Get(nil, text("a")).Comment("first")

	disp := reg.Build()
	require.Equal(t, int64(1), logs.NumLogRegistered)

	reg.Register("/b", nil).Get(nil, text("b"))
	reg.Register("/a", nil).Post(bdispatch.RawBody(), nil, text("posted"))

	require.Equal(t, http.StatusNotFound, do(t, disp, http.MethodGet, "/b", nil).Code)
	require.Equal(t, http.StatusForbidden, do(t, disp, http.MethodPost, "/a", nil).Code)
	require.Len(t, disp.Routes(), 1)
	require.Equal(t, "first", disp.Routes()[0].Operations[0].Comment)

	disp2 := reg.Build()
	require.Equal(t, "b", do(t, disp2, http.MethodGet, "/b", nil).Body.String())
	require.Equal(t, "posted", do(t, disp2, http.MethodPost, "/a", nil).Body.String())
}

func TestGroupAndReverse(t *testing.T) {
	reg := bdispatch.NewRegistry(bdispatch.WithLogger(bdispatch.NewTestLogger(t)))
	api := reg.Group("/api")
	api.Register("/items/{id}", bdispatch.SchemaOf[ItemURL]()).Name("item").Get(nil, text("item"))

	v2 := api.Group("/v2/")
	require.Equal(t, "/api/v2/", v2.Prefix())
	v2.Register("/items", nil).Name("items_v2").Get(nil, text("items v2"))

	disp := reg.Build()
	require.Equal(t, "item", do(t, disp, http.MethodGet, "/api/items/1", nil).Body.String())
	require.Equal(t, "items v2", do(t, disp, http.MethodGet, "/api/v2/items", nil).Body.String())

	loc, err := disp.Reverse("item", "42")
	require.NoError(t, err)
	assert.Equal(t, "/api/items/42", loc)

	loc, err = disp.Reverse("items_v2")
	require.NoError(t, err)
	assert.Equal(t, "/api/v2/items", loc)

	loc, err = reg.Reverse("item", "a b")
	require.NoError(t, err)
	assert.Equal(t, "/api/items/a%20b", loc)
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(name string) bdispatch.Middleware {
		return func(next bdispatch.OperationFunc) bdispatch.OperationFunc {
			return func(ctx context.Context, in *bdispatch.Input) (*bdispatch.Future, error) {
				order = append(order, name)
				return next(ctx, in)
			}
		}
	}

	reg := bdispatch.NewRegistry(bdispatch.WithLogger(bdispatch.NewTestLogger(t)))
	reg.Use(mw("1"), mw("2"))
	reg.Use(mw("3"))
	reg.Register("/", nil).Get(nil, func(ctx context.Context, in *bdispatch.Input) (*bdispatch.Future, error) {
		order = append(order, "op")
		return nil, nil
	})

	rec := do(t, reg.Build(), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []string{"1", "2", "3", "op"}, order)
}
