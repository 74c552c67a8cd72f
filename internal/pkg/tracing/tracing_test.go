package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_NoTracer(t *testing.T) {
	SetTracer(nil)

	ctx := context.Background()
	got, span := StartSpan(ctx, "noop")
	defer span.End()

	assert.Equal(t, ctx, got)
	assert.Empty(t, GetTraceID(got))
}

func TestStartSpan_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	shutdown := Init("crm-resolution-test", recorder)
	t.Cleanup(func() {
		_ = shutdown(context.Background())
		SetTracer(nil)
	})

	ctx, span := StartSpan(context.Background(), "merge.Executor.MergeCustomers",
		attribute.String("tenant_id", "t1"))
	assert.NotEmpty(t, GetTraceID(ctx))
	RecordError(span, errors.New("lock not acquired"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "merge.Executor.MergeCustomers", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("tenant_id", "t1"))
}

func TestRecordError_Nil(t *testing.T) {
	_, span := StartSpan(context.Background(), "noop")
	RecordError(span, nil)
	RecordError(nil, errors.New("ignored"))
	span.End()
}
