package batch_test

import (
	"context"
	"strconv"

	"github.com/flowq-io/flowq/batch"
)

// echoFunc formats every value, succeeding for all of them.
func echoFunc(_ context.Context, values []int) ([]batch.Result[string], error) {
	results := make([]batch.Result[string], len(values))
	for i, v := range values {
		results[i] = batch.OK(strconv.Itoa(v))
	}
	return results, nil
}

// blockingFunc signals started on every invocation, then holds until
// release is closed before echoing.
func blockingFunc(started chan<- struct{}, release <-chan struct{}) batch.Func[int, string] {
	return func(ctx context.Context, values []int) ([]batch.Result[string], error) {
		started <- struct{}{}
		<-release
		return echoFunc(ctx, values)
	}
}
