package kvstore

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

// ErrInvalidTable 表名不是合法的 SQL 标识符。
var ErrInvalidTable = errors.New("kvstore: invalid table name")

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite 是以单张 (key, value) 表保存设置的存储，value 允许为 NULL。
//
// key 原样保存；查找忽略大小写（COLLATE NOCASE），与 [macroexp.Element.Key] 一致。
type SQLite struct {
	mu    sync.Mutex
	db    *sql.DB
	table string
}

// OpenSQLite 打开（必要时创建）path 处的数据库，并确保表存在。
func OpenSQLite(path, table string) (*SQLite, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY COLLATE NOCASE,
			value TEXT
		)`, table))
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("kvstore: create table %s: %w", table, err)
	}

	return &SQLite{db: db, table: table}, nil
}

// Load 返回按 key 排序的全部元素。
func (s *SQLite) Load() ([]*macroexp.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(fmt.Sprintf(`SELECT key, value FROM %s ORDER BY key`, s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elems []*macroexp.Element
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		if value.Valid {
			elems = append(elems, macroexp.NewElement(key, value.String))
		} else {
			elems = append(elems, macroexp.NewNullElement(key))
		}
	}

	return elems, rows.Err()
}

// Get 返回 key 对应的元素，不存在时返回 nil。
func (s *SQLite) Get(key string) (*macroexp.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored string
	var value sql.NullString
	err := s.db.QueryRow(fmt.Sprintf(`SELECT key, value FROM %s WHERE key = ?`, s.table), key).Scan(&stored, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !value.Valid {
		return macroexp.NewNullElement(stored), nil
	}

	return macroexp.NewElement(stored, value.String), nil
}

// Put 写入或覆盖 key 的值。
func (s *SQLite) Put(key, value string) error {
	return s.put(key, sql.NullString{String: value, Valid: true})
}

// PutNull 把 key 的值设为 NULL。
func (s *SQLite) PutNull(key string) error {
	return s.put(key, sql.NullString{})
}

// PutElements 在一个事务内写入全部元素，null 元素写为 NULL。
func (s *SQLite) PutElements(elems []*macroexp.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, elem := range elems {
		if elem == nil || elem.IsEmpty() {
			continue
		}
		value := sql.NullString{String: elem.Value(), Valid: !elem.IsNull()}
		if _, err := tx.Exec(s.upsertSQL(), elem.Identifier(), value); err != nil {
			_ = tx.Rollback()

			return err
		}
	}

	return tx.Commit()
}

func (s *SQLite) put(key string, value sql.NullString) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(s.upsertSQL(), key, value)

	return err
}

func (s *SQLite) upsertSQL() string {
	return fmt.Sprintf(`
		INSERT INTO %s (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, s.table)
}

// Delete 删除 key，不存在时不报错。
func (s *SQLite) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table), key)

	return err
}

// Close 关闭数据库连接。
func (s *SQLite) Close() error {
	return s.db.Close()
}
