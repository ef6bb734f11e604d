package model

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Customer struct {
	Id   int64
	Name string

	Orders  []*Purchase `orm:"-"`
	Account *Account    `orm:"-"`
	Tags    []*Tag      `orm:"-"`
}

func (c Customer) Relationships() []*Relationship {
	return []*Relationship{
		HasMany("Orders", &Purchase{}),
		HasOne("Account", &Account{}).FK("OwnerId"),
		ManyToMany("Tags", &Tag{}, "customer_tag"),
	}
}

type Purchase struct {
	Id         int64
	CustomerId int64

	Customer *Customer `orm:"-"`
}

func (p Purchase) Relationships() []*Relationship {
	return []*Relationship{
		BelongsTo("Customer", &Customer{}),
	}
}

type Account struct {
	Id      int64
	OwnerId int64
}

type Tag struct {
	Id   int64
	Name string
}

func TestRegistry_relationships(t *testing.T) {
	r := NewRegistry()
	m, err := r.Get(&Customer{})
	require.NoError(t, err)
	require.Len(t, m.Relationships, 3)

	t.Run("has many defaults", func(t *testing.T) {
		rel := m.Relationships["Orders"]
		require.NotNil(t, rel)
		assert.Equal(t, RelationHasMany, rel.Kind)
		assert.Equal(t, reflect.TypeOf(Purchase{}), rel.RelatedType)
		// 默认外键：父类型名 + Id
		assert.Equal(t, "CustomerId", rel.ForeignKey)
		assert.Equal(t, 2, rel.FieldIndex)
	})

	t.Run("has one with explicit fk", func(t *testing.T) {
		rel := m.Relationships["Account"]
		require.NotNil(t, rel)
		assert.Equal(t, RelationHasOne, rel.Kind)
		assert.Equal(t, "OwnerId", rel.ForeignKey)
	})

	t.Run("many to many junction defaults", func(t *testing.T) {
		rel := m.Relationships["Tags"]
		require.NotNil(t, rel)
		assert.Equal(t, "customer_tag", rel.JunctionTable)
		assert.Equal(t, "customer_id", rel.JunctionParentCol)
		assert.Equal(t, "tag_id", rel.JunctionRelatedCol)
	})
}

func TestRegistry_belongsToDefaults(t *testing.T) {
	m, err := NewRegistry().Get(&Purchase{})
	require.NoError(t, err)

	rel := m.Relationships["Customer"]
	require.NotNil(t, rel)
	assert.Equal(t, RelationBelongsTo, rel.Kind)
	// 默认外键：关联类型名 + Id，外键在自己身上
	assert.Equal(t, "CustomerId", rel.ForeignKey)
}

// 中间表必须显式声明，没有就直接失败
func TestRegistry_missingJunction(t *testing.T) {
	type Post struct {
		Id   int64
		Tags []*Tag `orm:"-"`
	}
	_, err := NewRegistry().Register(&Post{},
		WithRelationship(&Relationship{
			Name:        "Tags",
			Kind:        RelationManyToMany,
			RelatedType: reflect.TypeOf(Tag{}),
		}))
	assert.Error(t, err)
}

func TestRegistry_unknownRelationField(t *testing.T) {
	type Orphan struct {
		Id int64
	}
	_, err := NewRegistry().Register(&Orphan{},
		WithRelationship(HasMany("Nothing", &Tag{})))
	assert.Error(t, err)
}
