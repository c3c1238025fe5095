package apitest

import (
	"context"
	"net/http"
)

type requestKey struct{}

func withRequest(ctx context.Context, rec Request) context.Context {
	return context.WithValue(ctx, requestKey{}, rec)
}

func requestFrom(r *http.Request) Request {
	rec, _ := r.Context().Value(requestKey{}).(Request)
	return rec
}
