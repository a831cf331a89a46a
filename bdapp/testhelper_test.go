package bdapp_test

import (
	"context"
	"strconv"
	"time"

	"github.com/advdv/bdispatch"
	"github.com/advdv/bdispatch/bdapp"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"
)

// TestEnv is a test environment with app-specific fields beyond BaseEnvironment.
type TestEnv struct {
	bdapp.BaseEnvironment
	MainTableName string `env:"MAIN_TABLE_NAME" envDefault:"test-table"`
}

type ItemURL struct {
	ID string `json:"id"`
}

type ListQuery struct {
	Limit int `query:"limit"`
}

type CreateItem struct {
	Name string `json:"name"`
}

type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Table string `json:"table"`
	Self  string `json:"self"`
}

type Created struct {
	Status int   `bdispatch:"status"`
	Item   *Item `bdispatch:"data"`
}

// Items demonstrates injection of the runtime and AWS clients into operations.
type Items struct {
	rt     *bdapp.Runtime[TestEnv]
	dynamo *dynamodb.Client
	s3     *bdapp.Primary[s3.Client]
	sqs    *bdapp.InRegion[sqs.Client]
	ssm    *ssm.Client
}

func NewItems(
	rt *bdapp.Runtime[TestEnv],
	dynamo *dynamodb.Client,
	s3 *bdapp.Primary[s3.Client],
	sqs *bdapp.InRegion[sqs.Client],
	ssm *ssm.Client,
) *Items {
	return &Items{rt: rt, dynamo: dynamo, s3: s3, sqs: sqs, ssm: ssm}
}

func (h *Items) Get(ctx context.Context, _ *struct{}, url *ItemURL, _ *struct{}) (bdispatch.Result, error) {
	self, err := h.rt.Reverse("item", url.ID)
	if err != nil {
		return nil, err
	}

	bdapp.Span(ctx).AddEvent("get-item")
	bdapp.Log(ctx).Info("getting item")

	return bdispatch.Record(&Item{ID: url.ID, Table: h.rt.Env().MainTableName, Self: self}), nil
}

func (h *Items) Create(ctx context.Context, body *CreateItem, _ *struct{}, _ *struct{}) (bdispatch.Result, error) {
	if body == nil || body.Name == "" {
		return nil, bdispatch.NewErrorf(bdispatch.CodeUnprocessableEntity, "name is required")
	}

	self, _ := h.rt.Reverse("item", "item-123")

	return bdispatch.Record(&Created{Status: 201, Item: &Item{ID: "item-123", Name: body.Name, Self: self}}), nil
}

func (h *Items) List(ctx context.Context, _ *struct{}, _ *struct{}, q *ListQuery) (bdispatch.Result, error) {
	limit := 1
	if q != nil {
		limit = q.Limit
	}

	items := make([]Item, 0, limit)
	for i := range limit {
		items = append(items, Item{ID: strconv.Itoa(i)})
	}

	return bdispatch.Record(items), nil
}

func (h *Items) Clients(ctx context.Context, _ *bdispatch.Input) (bdispatch.Result, error) {
	bdapp.Log(ctx).Info("listing clients", zap.Duration("remaining", bdapp.RequestRemainingTime(ctx)))

	return bdispatch.Record(map[string]any{
		"dynamo":     h.dynamo != nil,
		"s3_primary": h.s3.Client != nil,
		"sqs_region": h.sqs.Region,
		"ssm":        h.ssm != nil,
	}), nil
}

func (h *Items) Slow(ctx context.Context, _ *bdispatch.Input) (bdispatch.Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Minute):
		return nil, nil
	}
}

func routing(reg *bdispatch.Registry, h *Items) {
	reg.Register("/items", nil).
		Get(bdispatch.SchemaOf[ListQuery](), bdispatch.Typed(h.List)).
		DeclareReturnType(bdispatch.SchemaOf[Item]())
	reg.Register("/items", nil).
		Post(bdispatch.TypedBody[CreateItem](), nil, bdispatch.Typed(h.Create)).
		DeclareReturnType(bdispatch.SchemaOf[Created]())
	reg.Register("/items/{id}", bdispatch.SchemaOf[ItemURL]()).Name("item").
		Get(nil, bdispatch.Typed(h.Get)).
		DeclareReturnType(bdispatch.SchemaOf[Item]())
	reg.Register("/clients", nil).Get(nil, bdispatch.Sync(h.Clients))
	reg.Register("/slow", nil).Get(nil, bdispatch.Async(nil, h.Slow))
}
