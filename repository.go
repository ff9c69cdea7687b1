package datacore

import "context"

// ExecuteDataSource maps data to a request, runs call with it and maps the
// response back to an entity. The first failing stage aborts the operation;
// later stages are not run.
func ExecuteDataSource[In, Req, Resp, Out any](
	ctx context.Context,
	mapper Mapper[In, Req, Resp, Out],
	data In,
	call func(ctx context.Context, req Req) (Resp, error),
) (Out, error) {
	var zero Out

	request, err := mapper.MapRequest(data)
	if err != nil {
		return zero, err
	}

	response, err := call(ctx, request)
	if err != nil {
		return zero, err
	}

	return mapper.MapResponse(response)
}
