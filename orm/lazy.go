package orm

import (
	"context"
	"reflect"

	"github.com/coderi421/kasane/orm/internal/errs"
	"github.com/coderi421/kasane/orm/model"
)

// 懒加载容器的状态机
// notLoaded ->(Load)-> loading ->(成功)-> loaded
//                              ->(失败)-> failed
// loaded 是终态，failed 允许重试：瞬时故障之后再调一次 Load 能恢复，
// 这是刻意的策略，不是疏忽
type lazyState uint8

const (
	stateNotLoaded lazyState = iota
	stateLoading
	stateLoaded
	stateFailed
)

// LoadFunc 加载策略，由 Selector 在实体落地的时候挂上去
// 也可以由用户手动指定
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Lazy 关联关系的懒加载容器
// 声明在实体上的时候必须标注 orm:"-"，它不映射任何列
// 例如：
//
//	type User struct {
//		Id     int64
//		Orders orm.Lazy[[]*Order] `orm:"-"`
//	}
//
// 容器归属于它所在的实体，不会在实体之间共享
type Lazy[T any] struct {
	state lazyState
	value T
	err   error
	rel   *model.Relationship
	load  LoadFunc[T]
}

// NewLazy 创建一个挂好加载策略的容器，给测试和手工组装用
func NewLazy[T any](fn LoadFunc[T]) Lazy[T] {
	return Lazy[T]{load: fn}
}

// LazyOf 创建一个已经处于 loaded 状态的容器
func LazyOf[T any](val T) Lazy[T] {
	return Lazy[T]{state: stateLoaded, value: val}
}

// Load 加载关联数据
// loaded 状态下直接返回缓存值，不会再次发起查询
// 没有挂加载策略的时候报错，而不是返回空值：
// 忘了配置加载器应该在测试里被看见，而不是静默拿到空结果
func (l *Lazy[T]) Load(ctx context.Context) (T, error) {
	if l.state == stateLoaded {
		return l.value, nil
	}

	if l.load == nil {
		var related string
		if l.rel != nil {
			related = l.rel.RelatedTypeName
		}
		var zero T
		return zero, errs.NewErrUnconfiguredRelation(related)
	}

	l.state = stateLoading
	val, err := l.load(ctx)
	if err != nil {
		l.state = stateFailed
		l.err = err
		var zero T
		return zero, err
	}

	l.state = stateLoaded
	l.value = val
	l.err = nil
	return val, nil
}

// Value 返回已加载的值，没加载过的时候第二个返回值是 false
func (l *Lazy[T]) Value() (T, bool) {
	if l.state != stateLoaded {
		var zero T
		return zero, false
	}
	return l.value, true
}

// Loaded 是否已经加载完成
func (l *Lazy[T]) Loaded() bool {
	return l.state == stateLoaded
}

// Err 上一次加载失败的错误，没失败过返回 nil
func (l *Lazy[T]) Err() error {
	return l.err
}

// MustLoad 加载失败的时候 panic，适合初始化阶段
func (l *Lazy[T]) MustLoad(ctx context.Context) T {
	val, err := l.Load(ctx)
	if err != nil {
		panic(err)
	}
	return val
}

// lazyRelation 预加载引擎和容器之间的桥
// 非导出接口 + 非导出方法，只在本包内做类型断言，
// 这样泛型容器对反射调用方保持不透明
type lazyRelation interface {
	// relationValueType 返回 T 的类型，引擎按它组装切片或者指针
	relationValueType() reflect.Type
	// setLoaded 直接把值写进去并置为 loaded，批量预加载的写回路径
	setLoaded(val any)
	// setDescriptor 挂上描述符，报错的时候能说出关联类型名
	setDescriptor(rel *model.Relationship)
	// bind 挂上动态加载策略，单体懒加载的路径
	bind(rel *model.Relationship, load func(ctx context.Context) (any, error))
}

var _ lazyRelation = (*Lazy[int])(nil)

func (l *Lazy[T]) relationValueType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (l *Lazy[T]) setLoaded(val any) {
	if val == nil {
		var zero T
		l.value = zero
	} else {
		l.value = val.(T)
	}
	l.state = stateLoaded
	l.err = nil
}

func (l *Lazy[T]) setDescriptor(rel *model.Relationship) {
	l.rel = rel
}

func (l *Lazy[T]) bind(rel *model.Relationship, load func(ctx context.Context) (any, error)) {
	l.rel = rel
	l.load = func(ctx context.Context) (T, error) {
		val, err := load(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if val == nil {
			var zero T
			return zero, nil
		}
		return val.(T), nil
	}
}
