package orm

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"log"
	"time"

	"github.com/coderi421/kasane/orm/internal/errs"
	"github.com/coderi421/kasane/orm/internal/valuer"
	"github.com/coderi421/kasane/orm/model"
	lru "github.com/hashicorp/golang-lru"
)

type DBOption func(*DB)

type DB struct {
	core
	db *sql.DB

	// stmts 预编译语句缓存，开启之后同样的 SQL 不会重复 Prepare
	// 用 lru 限制住大小，淘汰的时候顺手把语句关掉
	stmts *lru.Cache
}

var _ Session = &DB{}

// Open creates a new DB instance with the provided driver and dsn.
func Open(driver string, dsn string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return OpenDB(db, opts...)
}

// OpenDB 包一层已有的 sql.DB，测试里配合 sqlmock 用的就是它
func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	res := &DB{
		core: core{
			dialect:    MySQL,
			r:          model.NewRegistry(),
			valCreator: valuer.NewUnsafeValue,
		},
		db: db,
	}

	for _, opt := range opts {
		opt(res)
	}

	return res, nil
}

// MustOpen creates a new DB with the provided options.
// If the creation fails, it panics.
func MustOpen(driver string, dsn string, opts ...DBOption) *DB {
	db, err := Open(driver, dsn, opts...)
	if err != nil {
		panic(err)
	}
	return db
}

func DBWithDialect(dialect Dialect) DBOption {
	return func(db *DB) {
		db.dialect = dialect
	}
}

func DBWithRegistry(r model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

// DBUseReflectValuer 切换到纯反射的映射实现
// 默认是 unsafe 的实现，快一些
func DBUseReflectValuer() DBOption {
	return func(db *DB) {
		db.valCreator = valuer.NewReflectValue
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = mdls
	}
}

// DBWithStmtCache 开启预编译语句缓存，size 是缓存的语句上限
func DBWithStmtCache(size int) DBOption {
	return func(db *DB) {
		if size <= 0 {
			return
		}
		cache, err := lru.NewWithEvict(size, func(key any, value any) {
			_ = value.(*sql.Stmt).Close()
		})
		if err != nil {
			return
		}
		db.stmts = cache
	}
}

func (db *DB) getCore() core {
	return db.core
}

func (db *DB) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if db.stmts != nil {
		stmt, err := db.prepare(ctx, query)
		if err == nil {
			return stmt.QueryContext(ctx, args...)
		}
		// 预编译失败就退回普通执行
	}
	return db.db.QueryContext(ctx, query, args...)
}

func (db *DB) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if db.stmts != nil {
		stmt, err := db.prepare(ctx, query)
		if err == nil {
			return stmt.ExecContext(ctx, args...)
		}
	}
	return db.db.ExecContext(ctx, query, args...)
}

func (db *DB) prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	if val, ok := db.stmts.Get(query); ok {
		return val.(*sql.Stmt), nil
	}
	stmt, err := db.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	db.stmts.Add(query, stmt)
	return stmt, nil
}

// BeginTx 开启事务
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, db: db}, nil
}

// DoTx 帮用户管理事务的生命周期
// fn 返回错误或者 panic 的时候回滚，否则提交
func (db *DB) DoTx(ctx context.Context,
	fn func(ctx context.Context, tx *Tx) error,
	opts *sql.TxOptions) (err error) {
	var tx *Tx
	tx, err = db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked || err != nil {
			e := tx.Rollback()
			err = errs.NewErrFailedToRollbackTx(err, e, panicked)
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(ctx, tx)
	panicked = false
	return err
}

// Wait 等待数据库启动，docker 起测试库的时候用
func (db *DB) Wait() error {
	err := db.db.Ping()
	for err == driver.ErrBadConn {
		log.Println("等待数据库启动...")
		err = db.db.Ping()
		time.Sleep(time.Second)
	}
	return err
}

func (db *DB) Close() error {
	return db.db.Close()
}
