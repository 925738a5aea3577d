// Package kvstore 提供设置值的来源，产出 [macroexp.Element] 列表供 KeyLookup 使用。
//
//   - [LoadFile]: YAML/JSON/TOML 文件，嵌套 key 以 "." 展平
//   - [SQLite]: 单表 (key, value) 存储，纯 Go 驱动 modernc.org/sqlite
//
// 两者都保留 null 值：文件中的 null 与表中的 NULL 都成为 null 元素。
package kvstore
