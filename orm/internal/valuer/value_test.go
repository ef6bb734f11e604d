package valuer

import (
	"database/sql"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderi421/kasane/orm/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestModel struct {
	Id        int64
	FirstName string
	Age       int8
	LastName  *sql.NullString
}

func testSetColumns(t *testing.T, creator Creator) {
	testCases := []struct {
		name    string
		cs      map[string][]byte
		want    *TestModel
		wantErr error
	}{
		{
			name: "full columns",
			cs: map[string][]byte{
				"id":         []byte("1"),
				"first_name": []byte("Zheng"),
				"age":        []byte("18"),
				"last_name":  []byte("Tianyi"),
			},
			want: &TestModel{
				Id:        1,
				FirstName: "Zheng",
				Age:       18,
				LastName:  &sql.NullString{String: "Tianyi", Valid: true},
			},
		},
		{
			name: "partial columns",
			cs: map[string][]byte{
				"id":         []byte("1"),
				"first_name": []byte("Zheng"),
			},
			want: &TestModel{
				Id:        1,
				FirstName: "Zheng",
			},
		},
	}

	r := model.NewRegistry()
	meta, err := r.Get(&TestModel{})
	require.NoError(t, err)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = mockDB.Close() }()

			cols := make([]string, 0, len(tc.cs))
			row := make([]driver.Value, 0, len(tc.cs))
			for k, v := range tc.cs {
				cols = append(cols, k)
				row = append(row, v)
			}
			rows := sqlmock.NewRows(cols)
			rows.AddRow(row...)
			mock.ExpectQuery("SELECT .*").WillReturnRows(rows)

			sqlRows, err := mockDB.Query("SELECT `xx` FROM `test_model`;")
			require.NoError(t, err)
			require.True(t, sqlRows.Next())

			tp := &TestModel{}
			val := creator(tp, meta)
			require.NoError(t, val.SetColumns(sqlRows))
			assert.Equal(t, tc.want, tp)
		})
	}
}

func TestReflectValue_SetColumns(t *testing.T) {
	testSetColumns(t, NewReflectValue)
}

func TestUnsafeValue_SetColumns(t *testing.T) {
	testSetColumns(t, NewUnsafeValue)
}

func testField(t *testing.T, creator Creator) {
	r := model.NewRegistry()
	meta, err := r.Get(&TestModel{})
	require.NoError(t, err)

	tm := &TestModel{Id: 7, FirstName: "Zheng"}
	val := creator(tm, meta)

	id, err := val.Field("Id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	name, err := val.Field("FirstName")
	require.NoError(t, err)
	assert.Equal(t, "Zheng", name)

	// 指针字段没赋值的时候拿到 typed nil
	ln, err := val.Field("LastName")
	require.NoError(t, err)
	assert.Equal(t, (*sql.NullString)(nil), ln)

	_, err = val.Field("Invalid")
	assert.Error(t, err)
}

func TestReflectValue_Field(t *testing.T) {
	testField(t, NewReflectValue)
}

func TestUnsafeValue_Field(t *testing.T) {
	testField(t, NewUnsafeValue)
}
