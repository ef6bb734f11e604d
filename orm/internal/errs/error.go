package errs

import (
	"errors"
	"fmt"
)

// 集中定义 sentinel error，方便用户判断错误类型
// 需要暴露给用户的，在 orm 包的 error.go 中重新导出
var (
	// ErrPointerOnly 只支持一级指针作为输入，例如 *User
	ErrPointerOnly = errors.New("orm: 只支持一级指针作为输入，例如 *User")
	// ErrNoRows 代表没有找到数据
	ErrNoRows = errors.New("orm: 未找到数据")
	// ErrInsertZeroRow 代表插入 0 行
	ErrInsertZeroRow = errors.New("orm: 插入 0 行")
	// ErrNoUpdatedColumns 代表没有指定要更新的列
	ErrNoUpdatedColumns = errors.New("orm: 未指定要更新的列")
	// ErrTooManyReturnedColumns 查询返回的列数多于目标结构体的字段数
	ErrTooManyReturnedColumns = errors.New("orm: 过多列")
)

// NewErrUnknownField 返回代表未知字段的错误
// 一般是用户输入了错误的字段名，注意区分结构体字段名和数据库列名
func NewErrUnknownField(fd string) error {
	return fmt.Errorf("orm: 未知字段 %s", fd)
}

// NewErrUnknownColumn 返回代表未知列名的错误
// 一般是数据库返回了模型中没有的列
func NewErrUnknownColumn(col string) error {
	return fmt.Errorf("orm: 未知列 %s", col)
}

func NewErrInvalidTagContent(pair string) error {
	return fmt.Errorf("orm: 非法标签值 %s", pair)
}

func NewErrUnsupportedExpressionType(exp any) error {
	return fmt.Errorf("orm: 不支持的表达式 %v", exp)
}

func NewErrUnsupportedSelectable(exp any) error {
	return fmt.Errorf("orm: 不支持的目标列 %v", exp)
}

func NewErrUnsupportedAssignableType(exp any) error {
	return fmt.Errorf("orm: 不支持的赋值表达式类型 %v", exp)
}

// NewErrFailedToRollbackTx 回滚事务失败
// bizErr 是业务错误，rbErr 是回滚时候的错误
func NewErrFailedToRollbackTx(bizErr error, rbErr error, panicked bool) error {
	return fmt.Errorf("orm: 回滚事务失败, 业务错误 %w, 回滚错误 %s, 是否panic %t", bizErr, rbErr, panicked)
}

// NewErrUnknownRelation 返回代表未知关联关系的错误
// 关联关系需要通过 Relational 接口或者注册选项声明
func NewErrUnknownRelation(name string) error {
	return fmt.Errorf("orm: 未知关联关系 %s", name)
}

// NewErrMissingField 实体上缺失主键或者外键字段
// 单体加载直接返回该错误，批量预加载里则跳过对应实体
func NewErrMissingField(typ string, fd string) error {
	return fmt.Errorf("orm: 实体 %s 缺失标识字段 %s", typ, fd)
}

// NewErrUnconfiguredRelation 懒加载容器没有挂载加载器
// 宁可报错也不返回空结果，避免测试里悄无声息地拿到空数据
func NewErrUnconfiguredRelation(relatedType string) error {
	return fmt.Errorf("orm: 关联 %s 未配置加载器", relatedType)
}

// NewErrInvalidRelationConfig 关联关系的元数据非法
// 例如 many-to-many 没有声明中间表
func NewErrInvalidRelationConfig(name string, reason string) error {
	return fmt.Errorf("orm: 关联 %s 配置非法: %s", name, reason)
}
