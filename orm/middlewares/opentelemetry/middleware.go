package opentelemetry

import (
	"context"

	"github.com/coderi421/kasane/orm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/coderi421/kasane/orm/middlewares/opentelemetry"

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			tbl := "unknown"
			if qc.Model != nil {
				tbl = qc.Model.TableName
			}
			spanCtx, span := m.Tracer.Start(ctx, qc.Type+" "+tbl)
			defer span.End()

			span.SetAttributes(attribute.String("component", "orm"))
			span.SetAttributes(attribute.String("table", tbl))
			if q, err := qc.Builder.Build(); err == nil {
				span.SetAttributes(attribute.String("sql", q.SQL))
			}

			res := next(spanCtx, qc)
			if res.Err != nil {
				span.RecordError(res.Err)
			}
			return res
		}
	}
}
