// Package ctxutil carries per-request identity and trace data through
// context.Context.
package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestKey struct{}
type traceKey struct{}

type RequestData struct {
	UserID uuid.UUID
	Email  string
}

type TraceData struct {
	RequestID string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	rd, _ := ctx.Value(requestKey{}).(*RequestData)
	return rd
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	td, _ := ctx.Value(traceKey{}).(*TraceData)
	return td
}
