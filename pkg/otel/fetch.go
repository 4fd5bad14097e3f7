package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ChildFetchSpan 在懒加载抓取子节点时创建 span
func ChildFetchSpan(ctx context.Context, entity string, parentID int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "timeline.fetch."+entity,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("timeline.entity", entity),
			attribute.Int("timeline.parent_id", parentID),
		),
	)
}

// LayoutSpan 在整次布局计算时创建 span
func LayoutSpan(ctx context.Context) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "timeline.layout",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}
