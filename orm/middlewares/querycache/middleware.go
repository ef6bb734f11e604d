package querycache

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/coderi421/kasane/orm"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	flagSingle byte = 0
	flagMulti  byte = 1
)

// MiddlewareBuilder 缓存 SELECT 的结果
// 缓存不做主动失效，靠过期时间兜底，写多读少的表别挂这个中间件
type MiddlewareBuilder struct {
	store      Store
	expiration time.Duration
}

func NewMiddlewareBuilder(store Store) *MiddlewareBuilder {
	return &MiddlewareBuilder{
		store:      store,
		expiration: time.Minute,
	}
}

func (m *MiddlewareBuilder) Expiration(expiration time.Duration) *MiddlewareBuilder {
	m.expiration = expiration
	return m
}

func (m *MiddlewareBuilder) Build() orm.Middleware {
	return func(next orm.Handler) orm.Handler {
		return func(ctx context.Context, qc *orm.QueryContext) *orm.QueryResult {
			if qc.Type != "SELECT" || qc.Model == nil {
				return next(ctx, qc)
			}
			q, err := qc.Builder.Build()
			if err != nil {
				return next(ctx, qc)
			}
			key := cacheKey(q.SQL, q.Args)

			if data, err := m.store.Get(ctx, key); err == nil && len(data) > 1 {
				if res, ok := decode(qc, data); ok {
					return res
				}
			}

			res := next(ctx, qc)
			if res.Err == nil && res.Result != nil {
				if data, err := encode(res.Result); err == nil {
					// 写缓存失败不影响查询结果
					_ = m.store.Set(ctx, key, data, m.expiration)
				}
			}
			return res
		}
	}
}

func cacheKey(sql string, args []any) string {
	h := xxhash.New()
	_, _ = h.WriteString(sql)
	_, _ = h.WriteString(fmt.Sprintf("%v", args))
	return strconv.FormatUint(h.Sum64(), 16)
}

// encode 第一个字节记录结果形态，后面是 msgpack 编码的数据
func encode(result any) ([]byte, error) {
	flag := flagSingle
	if reflect.TypeOf(result).Kind() == reflect.Slice {
		flag = flagMulti
	}
	data, err := msgpack.Marshal(result)
	if err != nil {
		return nil, err
	}
	return append([]byte{flag}, data...), nil
}

func decode(qc *orm.QueryContext, data []byte) (*orm.QueryResult, bool) {
	switch data[0] {
	case flagSingle:
		tp := reflect.New(qc.Model.Type).Interface()
		if err := msgpack.Unmarshal(data[1:], tp); err != nil {
			return nil, false
		}
		return &orm.QueryResult{Result: tp}, true
	case flagMulti:
		slice := reflect.New(reflect.SliceOf(reflect.PtrTo(qc.Model.Type)))
		if err := msgpack.Unmarshal(data[1:], slice.Interface()); err != nil {
			return nil, false
		}
		return &orm.QueryResult{Result: slice.Elem().Interface()}, true
	default:
		return nil, false
	}
}
