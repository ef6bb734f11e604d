package orm

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/kasane/orm/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInserter_Build(t *testing.T) {
	db := memoryDB(t)

	testCases := []struct {
		name      string
		q         QueryBuilder
		wantQuery *Query
		wantErr   error
	}{
		{
			// 不提供数据
			name:    "no value",
			q:       NewInserter[TestModel](db).Values(),
			wantErr: errs.ErrInsertZeroRow,
		},
		{
			name: "single values",
			q: NewInserter[TestModel](db).Values(
				&TestModel{
					Id:        1,
					FirstName: "Zheng",
					Age:       18,
					LastName:  &sql.NullString{String: "Tianyi", Valid: true},
				}),
			wantQuery: &Query{
				SQL:  "INSERT INTO `test_model`(`id`,`first_name`,`age`,`last_name`) VALUES (?,?,?,?);",
				Args: []any{int64(1), "Zheng", int8(18), &sql.NullString{String: "Tianyi", Valid: true}},
			},
		},
		{
			name: "multiple values",
			q: NewInserter[TestModel](db).Values(
				&TestModel{
					Id:        1,
					FirstName: "Zheng",
					Age:       18,
					LastName:  &sql.NullString{String: "Tianyi", Valid: true},
				},
				&TestModel{
					Id:        2,
					FirstName: "Tom",
					Age:       16,
					LastName:  &sql.NullString{String: "Jerry", Valid: true},
				}),
			wantQuery: &Query{
				SQL: "INSERT INTO `test_model`(`id`,`first_name`,`age`,`last_name`) VALUES (?,?,?,?),(?,?,?,?);",
				Args: []any{
					int64(1), "Zheng", int8(18), &sql.NullString{String: "Tianyi", Valid: true},
					int64(2), "Tom", int8(16), &sql.NullString{String: "Jerry", Valid: true},
				},
			},
		},
		{
			// 指定列
			name: "specify columns",
			q: NewInserter[TestModel](db).Columns("FirstName", "LastName").Values(
				&TestModel{
					Id:        1,
					FirstName: "Zheng",
					LastName:  &sql.NullString{String: "Tianyi", Valid: true},
				}),
			wantQuery: &Query{
				SQL:  "INSERT INTO `test_model`(`first_name`,`last_name`) VALUES (?,?);",
				Args: []any{"Zheng", &sql.NullString{String: "Tianyi", Valid: true}},
			},
		},
		{
			name: "invalid columns",
			q: NewInserter[TestModel](db).Columns("FirstName", "Invalid").Values(
				&TestModel{Id: 1}),
			wantErr: errs.NewErrUnknownField("Invalid"),
		},
		{
			// 冲突时更新为插入的值
			name: "upsert update value",
			q: NewInserter[TestModel](db).Values(
				&TestModel{
					Id:        1,
					FirstName: "Zheng",
					Age:       18,
					LastName:  &sql.NullString{String: "Tianyi", Valid: true},
				}).OnDuplicateKey().Update(C("FirstName"), C("LastName")),
			wantQuery: &Query{
				SQL: "INSERT INTO `test_model`(`id`,`first_name`,`age`,`last_name`) VALUES (?,?,?,?)" +
					" ON DUPLICATE KEY UPDATE `first_name`=VALUES(`first_name`),`last_name`=VALUES(`last_name`);",
				Args: []any{int64(1), "Zheng", int8(18), &sql.NullString{String: "Tianyi", Valid: true}},
			},
		},
		{
			// 冲突时更新为指定值
			name: "upsert assignment",
			q: NewInserter[TestModel](db).Values(
				&TestModel{
					Id:        1,
					FirstName: "Zheng",
					Age:       18,
					LastName:  &sql.NullString{String: "Tianyi", Valid: true},
				}).OnDuplicateKey().Update(Assign("Age", 19)),
			wantQuery: &Query{
				SQL: "INSERT INTO `test_model`(`id`,`first_name`,`age`,`last_name`) VALUES (?,?,?,?)" +
					" ON DUPLICATE KEY UPDATE `age`=?;",
				Args: []any{int64(1), "Zheng", int8(18), &sql.NullString{String: "Tianyi", Valid: true}, 19},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query, err := tc.q.Build()
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, tc.wantQuery, query)
		})
	}
}

func TestInserter_SQLite_upsert(t *testing.T) {
	db := memoryDB(t, DBWithDialect(SQLite3))

	query, err := NewInserter[TestModel](db).Values(
		&TestModel{
			Id:        1,
			FirstName: "Zheng",
			Age:       18,
			LastName:  &sql.NullString{String: "Tianyi", Valid: true},
		}).OnDuplicateKey().ConflictColumns("Id").Update(Assign("FirstName", "Tian")).Build()
	require.NoError(t, err)
	assert.Equal(t, &Query{
		SQL: "INSERT INTO `test_model`(`id`,`first_name`,`age`,`last_name`) VALUES (?,?,?,?)" +
			" ON CONFLICT(`id`) DO UPDATE SET `first_name`=?;",
		Args: []any{int64(1), "Zheng", int8(18), &sql.NullString{String: "Tianyi", Valid: true}, "Tian"},
	}, query)
}

func TestInserter_Exec(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = mockDB.Close() }()

	db, err := OpenDB(mockDB)
	require.NoError(t, err)

	t.Run("exec error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO .*").WillReturnError(errors.New("exec error"))
		res := NewInserter[TestModel](db).Values(&TestModel{Id: 1}).Exec(context.Background())
		assert.Equal(t, errors.New("exec error"), res.Err())
	})

	t.Run("exec", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO .*").WillReturnResult(sqlmock.NewResult(1, 1))
		res := NewInserter[TestModel](db).Values(&TestModel{Id: 1}).Exec(context.Background())
		require.NoError(t, res.Err())
		id, err := res.LastInsertId()
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})
}
