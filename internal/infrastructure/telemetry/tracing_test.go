package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/catalogsync/internal/domain/integration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// useRecorder swaps the global provider for one backed by an in-memory recorder.
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartServiceSpan(t *testing.T) {
	sr := useRecorder(t)
	jobID := uuid.New()

	_, span := StartServiceSpan(context.Background(), "catalog_import", "execute",
		WithAttribute(SpanAttrImportID, jobID),
		WithAttribute(SpanAttrImportSource, "csv"),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "catalog_import.execute", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, TracerName, spans[0].InstrumentationScope().Name)

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, jobID.String(), attrs[SpanAttrImportID].AsString())
	assert.Equal(t, "csv", attrs[SpanAttrImportSource].AsString())
}

func TestSetAttributes(t *testing.T) {
	sr := useRecorder(t)

	_, span := StartSpan(context.Background(), "erp_sync.run")
	SetAttributes(span,
		SpanAttrErpType, "evira",
		SpanAttrRecordCount, 42,
		"dangling",
	)
	SetAttributes(span, 7, "ignored", SpanAttrConnectionID, "c-1")
	SetAttribute(span, SpanAttrImportSource, "erp")
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, "evira", attrs[SpanAttrErpType].AsString())
	assert.Equal(t, int64(42), attrs[SpanAttrRecordCount].AsInt64())
	assert.Equal(t, "c-1", attrs[SpanAttrConnectionID].AsString())
	assert.Equal(t, "erp", attrs[SpanAttrImportSource].AsString())
	_, ok := attrs["dangling"]
	assert.False(t, ok)
}

func TestRecordSyncResult(t *testing.T) {
	sr := useRecorder(t)

	_, span := StartSpan(context.Background(), "catalog.reconcile")
	RecordSyncResult(span, integration.SyncResult{
		Imported: 4,
		Updated:  2,
		Failed:   1,
		Errors:   []integration.RowFailure{{Row: 3, SKU: "BRK-9", Message: "price is required"}},
	})
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, int64(4), attrs[SpanAttrImported].AsInt64())
	assert.Equal(t, int64(2), attrs[SpanAttrUpdated].AsInt64())
	assert.Equal(t, int64(1), attrs[SpanAttrFailed].AsInt64())
	assert.Equal(t, int64(1), attrs[SpanAttrErrorCount].AsInt64())
}

func TestRecordError(t *testing.T) {
	sr := useRecorder(t)

	_, failed := StartSpan(context.Background(), "failed")
	RecordError(failed, errors.New("adapter unreachable"))
	failed.End()

	_, ok := StartSpan(context.Background(), "ok")
	RecordError(ok, nil)
	ok.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "adapter unreachable", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
	assert.Empty(t, spans[1].Events())
}

func TestNestedSpans(t *testing.T) {
	sr := useRecorder(t)

	ctx, parent := StartSpan(context.Background(), "erp_sync.run")
	_, child := StartSpan(ctx, "catalog.reconcile")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext().TraceID(), spans[0].SpanContext().TraceID())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestHelpers_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, "k", "v")
		SetAttribute(nil, "k", "v")
		RecordSyncResult(nil, integration.SyncResult{Imported: 1})
		RecordError(nil, errors.New("x"))
	})
}

func TestToAttribute(t *testing.T) {
	id := uuid.MustParse("6f1c2b1e-9f57-4a51-9b43-3c8f0f1d2a10")

	tests := []struct {
		name  string
		value any
		want  attribute.Value
	}{
		{"string", "csv", attribute.StringValue("csv")},
		{"int", 5, attribute.IntValue(5)},
		{"int64", int64(6), attribute.Int64Value(6)},
		{"float64", 1.5, attribute.Float64Value(1.5)},
		{"bool", true, attribute.BoolValue(true)},
		{"string slice", []string{"sku", "name"}, attribute.StringSliceValue([]string{"sku", "name"})},
		{"stringer", id, attribute.StringValue(id.String())},
		{"fallback", struct{ N int }{3}, attribute.StringValue("{3}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := toAttribute("k", tt.value)
			assert.Equal(t, attribute.Key("k"), kv.Key)
			assert.Equal(t, tt.want, kv.Value)
		})
	}
}
