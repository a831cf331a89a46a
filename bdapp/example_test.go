package bdapp_test

import (
	"context"

	"github.com/advdv/bdispatch"
	"github.com/advdv/bdispatch/bdapp"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/fx"
)

type Greeter struct {
	rt *bdapp.Runtime[bdapp.BaseEnvironment]
}

func NewGreeter(rt *bdapp.Runtime[bdapp.BaseEnvironment], _ *dynamodb.Client) *Greeter {
	return &Greeter{rt: rt}
}

type GreetURL struct {
	Name string `json:"name"`
}

func (g *Greeter) Greet(ctx context.Context, _ *struct{}, url *GreetURL, _ *struct{}) (bdispatch.Result, error) {
	bdapp.Log(ctx).Info("greeting")

	return bdispatch.Record(map[string]string{
		"greeting": "hello " + url.Name,
		"service":  g.rt.Env().ServiceName,
	}), nil
}

func ExampleNewApp() {
	app := bdapp.NewApp[bdapp.BaseEnvironment](func(reg *bdispatch.Registry, g *Greeter) {
		reg.Register("/greet/{name}", bdispatch.SchemaOf[GreetURL]()).Name("greet").
			Get(nil, bdispatch.Typed(g.Greet)).
			Comment("greets by name")
	},
		bdapp.WithAWSClient(func(cfg aws.Config) *dynamodb.Client { return dynamodb.NewFromConfig(cfg) }),
		bdapp.WithFx(fx.Provide(NewGreeter)),
	)

	_ = app // app.Run() blocks until interrupted
}
