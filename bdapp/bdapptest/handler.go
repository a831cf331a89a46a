package bdapptest

import (
	"context"
	"testing"

	"github.com/advdv/bdispatch"
	"github.com/stretchr/testify/require"
)

// CallOperation invokes 'fn' with 'in' and waits for its future, without any HTTP in between. It fails
// the test when the operation does not return a future.
func CallOperation(tb testing.TB, fn bdispatch.OperationFunc, in *bdispatch.Input) (bdispatch.Result, error) {
	tb.Helper()

	if in == nil {
		in = &bdispatch.Input{}
	}

	ctx := context.Background()
	fut, err := fn(ctx, in)
	require.NoError(tb, err, "operation failed to return a future")
	require.NotNil(tb, fut, "operation returned a nil future")

	return fut.Await(ctx)
}
