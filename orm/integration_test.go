//go:build e2e

package orm

import (
	"context"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// 跑这个测试前先把 mysql 容器起起来：
// docker run -e MYSQL_ROOT_PASSWORD=root -e MYSQL_DATABASE=integration_test -p 13306:3306 -d mysql:8

type IntegrationSuite struct {
	suite.Suite
	db *DB
}

func (s *IntegrationSuite) SetupSuite() {
	t := s.T()
	db, err := Open("mysql", "root:root@tcp(localhost:13306)/integration_test")
	require.NoError(t, err)
	require.NoError(t, db.Wait())
	s.db = db

	res := RawQuery[any](db, "CREATE TABLE IF NOT EXISTS `user`("+
		"`id` BIGINT PRIMARY KEY, `name` VARCHAR(128));").Exec(context.Background())
	require.NoError(t, res.Err())
	res = RawQuery[any](db, "CREATE TABLE IF NOT EXISTS `order`("+
		"`id` BIGINT PRIMARY KEY, `user_id` BIGINT, `amount` BIGINT);").Exec(context.Background())
	require.NoError(t, res.Err())
}

func (s *IntegrationSuite) TearDownTest() {
	res := RawQuery[any](s.db, "TRUNCATE TABLE `user`;").Exec(context.Background())
	require.NoError(s.T(), res.Err())
	res = RawQuery[any](s.db, "TRUNCATE TABLE `order`;").Exec(context.Background())
	require.NoError(s.T(), res.Err())
}

func (s *IntegrationSuite) TestCRUDAndPreload() {
	t := s.T()
	ctx := context.Background()

	res := NewInserter[User](s.db).Values(
		&User{Id: 1, Name: "alice"},
		&User{Id: 2, Name: "bob"}).Exec(ctx)
	require.NoError(t, res.Err())

	res = NewInserter[Order](s.db).Values(
		&Order{Id: 10, UserId: 1, Amount: 100},
		&Order{Id: 11, UserId: 1, Amount: 200}).Exec(ctx)
	require.NoError(t, res.Err())

	users, err := NewSelector[User](s.db).Preload("Orders").GetMulti(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Len(t, users[0].Orders, 2)
	assert.Empty(t, users[1].Orders)

	orders, err := LoadHasMany[Order](ctx, s.db, users[0], "Orders")
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	res = NewUpdater[User](s.db).Update(&User{Name: "carol"}).
		Set(C("Name")).Where(C("Id").EQ(2)).Exec(ctx)
	require.NoError(t, res.Err())

	res = NewDeleter[Order](s.db).Where(C("Id").EQ(11)).Exec(ctx)
	require.NoError(t, res.Err())
}

func TestIntegration(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}
