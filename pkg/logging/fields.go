package logging

import (
	"context"

	"github.com/sirupsen/logrus"
)

type fieldsKey struct{}

const FieldRequestID = "request_id"

// WithFields returns a context whose loggers carry the given fields in
// addition to any fields already on ctx.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	if len(fields) == 0 {
		return ctx
	}

	merged := logrus.Fields{}
	for k, v := range fieldsFromContext(ctx) {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return WithFields(ctx, map[string]any{FieldRequestID: requestID})
}

func RequestIDFromContext(ctx context.Context) string {
	fields := fieldsFromContext(ctx)
	if id, ok := fields[FieldRequestID].(string); ok {
		return id
	}
	return ""
}

func fieldsFromContext(ctx context.Context) logrus.Fields {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(logrus.Fields)
	return fields
}
