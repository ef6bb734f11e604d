package opentelemetry

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/kasane/orm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type TestModel struct {
	Id   int64
	Name string
}

// tracerProvider 同时挂上 jaeger 和 zipkin 两个 exporter
// 本地起了 collector 的话能直接看到 span
func tracerProvider(t *testing.T) *sdktrace.TracerProvider {
	jaegerExp, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint("http://localhost:14268/api/traces")))
	require.NoError(t, err)

	zipkinExp, err := zipkin.New("http://localhost:9411/api/v2/spans")
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(jaegerExp),
		sdktrace.WithBatcher(zipkinExp),
	)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp
}

func TestMiddleware(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = mockDB.Close() }()

	tp := tracerProvider(t)
	m := &MiddlewareBuilder{Tracer: tp.Tracer("orm-test")}

	db, err := orm.OpenDB(mockDB, orm.DBWithMiddlewares(m.Build()))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `test_model` WHERE `id` = \\?;").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "alice"))

	res, err := orm.NewSelector[TestModel](db).Where(orm.C("Id").EQ(1)).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &TestModel{Id: 1, Name: "alice"}, res)

	assert.NoError(t, mock.ExpectationsWereMet())
}
