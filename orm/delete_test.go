package orm

import (
	"testing"

	"github.com/coderi421/kasane/orm/internal/errs"
	"github.com/stretchr/testify/assert"
)

func TestDeleter_Build(t *testing.T) {
	db := memoryDB(t)

	testCases := []struct {
		name      string
		q         QueryBuilder
		wantQuery *Query
		wantErr   error
	}{
		{
			name: "no where",
			q:    NewDeleter[TestModel](db),
			wantQuery: &Query{
				SQL: "DELETE FROM `test_model`;",
			},
		},
		{
			name: "with from",
			q:    NewDeleter[TestModel](db).From("`test_db`.`test_model`"),
			wantQuery: &Query{
				SQL: "DELETE FROM `test_db`.`test_model`;",
			},
		},
		{
			name: "with where",
			q:    NewDeleter[TestModel](db).Where(C("Id").EQ(16)),
			wantQuery: &Query{
				SQL:  "DELETE FROM `test_model` WHERE `id` = ?;",
				Args: []any{16},
			},
		},
		{
			name:    "invalid column",
			q:       NewDeleter[TestModel](db).Where(C("Invalid").EQ(16)),
			wantErr: errs.NewErrUnknownField("Invalid"),
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
