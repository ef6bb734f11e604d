package model

import (
	"database/sql"
	"testing"

	"github.com/coderi421/kasane/orm/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestModel struct {
	Id        int64
	FirstName string
	Age       int8
	LastName  *sql.NullString
}

func TestRegistry_Get(t *testing.T) {
	testCases := []struct {
		name    string
		val     any
		want    *Model
		wantErr error
	}{
		{
			name:    "struct",
			val:     TestModel{},
			wantErr: errs.ErrPointerOnly,
		},
		{
			name:    "map",
			val:     map[string]string{},
			wantErr: errs.ErrPointerOnly,
		},
		{
			name:    "basic type",
			val:     0,
			wantErr: errs.ErrPointerOnly,
		},
		{
			name: "pointer",
			val:  &TestModel{},
		},
	}

	r := NewRegistry()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := r.Get(tc.val)
			assert.Equal(t, tc.wantErr, err)
			if err != nil {
				return
			}
			assert.Equal(t, "test_model", m.TableName)
			assert.Equal(t, "TestModel", m.TypeName)
			assert.Len(t, m.Fields, 4)
			assert.Equal(t, "first_name", m.FieldMap["FirstName"].ColName)
			assert.Same(t, m.FieldMap["FirstName"], m.ColumnMap["first_name"])
		})
	}
}

func TestRegistry_primaryKey(t *testing.T) {
	t.Run("convention Id", func(t *testing.T) {
		m, err := NewRegistry().Get(&TestModel{})
		require.NoError(t, err)
		require.NotNil(t, m.PrimaryKey)
		assert.Equal(t, "Id", m.PrimaryKey.GoName)
		assert.True(t, m.PrimaryKey.IsPrimaryKey)
	})

	t.Run("pk tag wins", func(t *testing.T) {
		type Account struct {
			Id   int64
			Uuid string `orm:"pk"`
		}
		m, err := NewRegistry().Get(&Account{})
		require.NoError(t, err)
		assert.Equal(t, "Uuid", m.PrimaryKey.GoName)
	})

	t.Run("no primary key", func(t *testing.T) {
		type WeirdTable struct {
			Payload string
		}
		m, err := NewRegistry().Get(&WeirdTable{})
		require.NoError(t, err)
		assert.Nil(t, m.PrimaryKey)
	})
}

func TestRegistry_tag(t *testing.T) {
	t.Run("column", func(t *testing.T) {
		type ColumnTag struct {
			Id int64 `orm:"column=id_t"`
		}
		m, err := NewRegistry().Get(&ColumnTag{})
		require.NoError(t, err)
		assert.Equal(t, "id_t", m.FieldMap["Id"].ColName)
	})

	t.Run("empty column", func(t *testing.T) {
		type EmptyColumn struct {
			FirstName string `orm:"column="`
		}
		_, err := NewRegistry().Get(&EmptyColumn{})
		assert.Equal(t, errs.NewErrInvalidTagContent("column="), err)
	})

	t.Run("ignored field", func(t *testing.T) {
		type IgnoreColumn struct {
			Id      int64
			Ignored string `orm:"-"`
		}
		m, err := NewRegistry().Get(&IgnoreColumn{})
		require.NoError(t, err)
		assert.Len(t, m.Fields, 1)
		_, ok := m.FieldMap["Ignored"]
		assert.False(t, ok)
	})
}

type CustomTableName struct {
	Id int64
}

func (c CustomTableName) TableName() string {
	return "custom_table_name_t"
}

func TestRegistry_tableName(t *testing.T) {
	m, err := NewRegistry().Get(&CustomTableName{})
	require.NoError(t, err)
	assert.Equal(t, "custom_table_name_t", m.TableName)
}

func TestRegistry_options(t *testing.T) {
	r := NewRegistry()
	m, err := r.Register(&TestModel{},
		WithTableName("test_model_t"),
		WithColumnName("FirstName", "name_t"))
	require.NoError(t, err)
	assert.Equal(t, "test_model_t", m.TableName)
	assert.Equal(t, "name_t", m.FieldMap["FirstName"].ColName)
	assert.Same(t, m.FieldMap["FirstName"], m.ColumnMap["name_t"])
	_, ok := m.ColumnMap["first_name"]
	assert.False(t, ok)
}
