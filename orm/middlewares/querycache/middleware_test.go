package querycache

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/kasane/orm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Product struct {
	Id    int64
	Name  string
	Price int64
}

func TestMiddleware_cacheHit(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = mockDB.Close() }()

	store := NewMemoryStore(time.Minute, time.Minute)
	db, err := orm.OpenDB(mockDB,
		orm.DBWithMiddlewares(NewMiddlewareBuilder(store).Build()))
	require.NoError(t, err)

	// 第一次走库
	mock.ExpectQuery("SELECT \\* FROM `product` WHERE `id` = \\?;").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).AddRow(1, "widget", 100))

	p1, err := orm.NewSelector[Product](db).Where(orm.C("Id").EQ(1)).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Product{Id: 1, Name: "widget", Price: 100}, p1)

	// 第二次同样的查询走缓存，不会命中数据库
	p2, err := orm.NewSelector[Product](db).Where(orm.C("Id").EQ(1)).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddleware_cacheMulti(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = mockDB.Close() }()

	store := NewMemoryStore(time.Minute, time.Minute)
	db, err := orm.OpenDB(mockDB,
		orm.DBWithMiddlewares(NewMiddlewareBuilder(store).Expiration(time.Second).Build()))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `product`;").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price"}).
			AddRow(1, "widget", 100).AddRow(2, "gadget", 200))

	ps1, err := orm.NewSelector[Product](db).GetMulti(context.Background())
	require.NoError(t, err)
	require.Len(t, ps1, 2)

	ps2, err := orm.NewSelector[Product](db).GetMulti(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ps1, ps2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// 写语句不经过缓存
func TestMiddleware_skipExec(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = mockDB.Close() }()

	store := NewMemoryStore(time.Minute, time.Minute)
	db, err := orm.OpenDB(mockDB,
		orm.DBWithMiddlewares(NewMiddlewareBuilder(store).Build()))
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO .*").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO .*").WillReturnResult(sqlmock.NewResult(2, 1))

	res := orm.NewInserter[Product](db).Values(&Product{Id: 1}).Exec(context.Background())
	require.NoError(t, res.Err())
	res = orm.NewInserter[Product](db).Values(&Product{Id: 1}).Exec(context.Background())
	require.NoError(t, res.Err())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute, time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.Equal(t, errKeyNotFound, err)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	val, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}
