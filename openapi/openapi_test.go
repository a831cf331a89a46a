package openapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/advdv/bdispatch"
	"github.com/advdv/bdispatch/openapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type ItemURL struct {
	ID int64 `json:"id"`
}

type ListQuery struct {
	Tags  []string `query:"tag" doc:"filter on tags"`
	Limit *uint    `query:"limit"`
}

type TenantHeader struct {
	Tenant string `header:"X-Tenant"`
}

type CreateItem struct {
	Name     string `json:"name"`
	Password string `json:"password" bdispatch:"sensitive"`
}

type Item struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name" doc:"display name"`
	CreatedAt time.Time         `json:"created_at"`
	Labels    map[string]string `json:"labels"`
	Children  []*Item           `json:"children"`
}

type Created struct {
	Status int   `bdispatch:"status"`
	Item   *Item `json:"item" bdispatch:"data"`
}

func nop(context.Context, *bdispatch.Input) (bdispatch.Result, error) { return nil, nil }

func setup() *bdispatch.Registry {
	reg := bdispatch.NewRegistry()
	reg.Register("/items", nil).Name("items").
		Get(bdispatch.SchemaOf[ListQuery](), bdispatch.Sync(nop)).
		Headers(bdispatch.SchemaOf[TenantHeader]()).
		DeclareReturnType(bdispatch.SchemaOf[Item]()).
		Comment("list items").
		Tags("items")
	reg.Register("/items", nil).
		Post(bdispatch.TypedBody[CreateItem](), nil, bdispatch.Sync(nop)).
		DeclareReturnType(bdispatch.SchemaOf[Created]())
	reg.Register("/items/{id}", bdispatch.SchemaOf[ItemURL]()).
		Put(bdispatch.FileBody(), nil, bdispatch.Sync(nop))

	return reg
}

func TestBuild(t *testing.T) {
	doc, err := openapi.Build(setup().Routes(), openapi.Info{
		Title:   "items",
		Version: "v1",
		Servers: []string{"https://example.com"},
	})
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	res := gjson.ParseBytes(data)
	assert.Equal(t, "https://example.com", res.Get("servers.0.url").String())

	list := res.Get("paths./items.get")
	assert.Equal(t, "list items", list.Get("summary").String())
	assert.Equal(t, "items.get", list.Get("operationId").String())
	assert.Equal(t, "items", list.Get("tags.0").String())
	assert.Equal(t, "tag", list.Get("parameters.0.name").String())
	assert.Equal(t, "query", list.Get("parameters.0.in").String())
	assert.Equal(t, "array", list.Get("parameters.0.schema.type").String())
	assert.Equal(t, "filter on tags", list.Get("parameters.0.description").String())
	assert.Equal(t, "integer", list.Get("parameters.1.schema.type").String())
	assert.Equal(t, "X-Tenant", list.Get("parameters.2.name").String())
	assert.Equal(t, "header", list.Get("parameters.2.in").String())

	item := list.Get(`responses.200.content.application/json.schema`)
	assert.Equal(t, "Item", item.Get("title").String())
	assert.Equal(t, "date-time", item.Get("properties.created_at.format").String())
	assert.Equal(t, "display name", item.Get("properties.name.description").String())
	assert.Equal(t, "object", item.Get("properties.children.items.type").String())

	create := res.Get("paths./items.post")
	assert.Equal(t, "CreateItem", create.Get(`requestBody.content.application/json.schema.title`).String())
	assert.Equal(t, "Item", create.Get(`responses.200.content.application/json.schema.title`).String())

	upload := res.Get(`paths./items/{id}.put`)
	assert.Equal(t, "id", upload.Get("parameters.0.name").String())
	assert.Equal(t, "path", upload.Get("parameters.0.in").String())
	assert.True(t, upload.Get("parameters.0.required").Bool())
	assert.Equal(t, "int64", upload.Get("parameters.0.schema.format").String())
	assert.Equal(t, "binary",
		upload.Get(`requestBody.content.application/octet-stream.schema.format`).String())
}

func TestRegister(t *testing.T) {
	reg := setup()
	openapi.Register(reg, "/openapi.json", openapi.Info{Title: "items", Version: "v1"})

	for range 2 {
		rec := httptest.NewRecorder()
		reg.Build().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		res := gjson.Parse(rec.Body.String())
		assert.Equal(t, "3.0.3", res.Get("openapi").String())
		assert.True(t, res.Get("paths./items").Exists())
		assert.False(t, res.Get(`paths./openapi\.json`).Exists())
	}
}
