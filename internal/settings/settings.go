// Package settings 提供带宏展开的类型化设置访问。
//
// 设置值在读取时求值，可引用其他设置、环境变量或做整除：
//
//	Philosopher Count: 5
//	Fork Count: "{%Philosopher Count%}"
//	Half: "{%Integer-divide::{%Philosopher Count%}::2%}"
//	Home: "{%Env::HOME::/tmp%}"
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/cfgm"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp/builtin"
)

var (
	// ErrNotFound 设置不存在。
	ErrNotFound = errors.New("settings: key not found")
	// ErrNull 设置存在但值为 null。
	ErrNull = errors.New("settings: value is null")
	// ErrPathConflict 同一路径既是值又是对象，如同时存在 "db" 与 "db.host"。
	ErrPathConflict = errors.New("settings: key conflicts with nested key")
)

type options struct {
	logger    *slog.Logger
	maxPasses int
	lookupEnv func(string) (string, bool)
}

// Option 设置选项函数。
type Option func(*options)

// WithLogger 设置日志输出，默认 slog.Default()。
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxPasses 设置引擎 pass 上限，0 表示默认值。
func WithMaxPasses(n int) Option {
	return func(o *options) {
		o.maxPasses = n
	}
}

// WithEnvLookup 替换 Env evaluator 的环境变量查找函数，默认 os.LookupEnv。
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(o *options) {
		o.lookupEnv = fn
	}
}

// Settings 是一组可求值的命名设置。
//
// 构造后只读，Get 等方法可并发调用。
type Settings struct {
	engine  *macroexp.Engine
	entries map[string]*macroexp.Element
	order   []*macroexp.Element
	logger  *slog.Logger
}

// New 从元素列表创建 Settings，profile 为 nil 时使用默认定界符。
//
// 依次注册 IntegerDivide、KeyLookup（以 elems 自解析）与 Env。
func New(elems []*macroexp.Element, profile *macroexp.Profile, opts ...Option) (*Settings, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if profile == nil {
		profile = macroexp.DefaultProfile()
	}

	engineOpts := []macroexp.Option{macroexp.WithMaxPasses(o.maxPasses), macroexp.WithLogger(o.logger)}

	lookup, err := builtin.NewKeyLookupElements(profile, elems, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	env := builtin.NewEnv(profile)
	if o.lookupEnv != nil {
		env = builtin.NewEnvFunc(profile, o.lookupEnv)
	}

	engine, err := macroexp.New(profile, append(engineOpts,
		macroexp.WithEvaluators(builtin.NewIntegerDivide(profile), lookup, env))...)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	s := &Settings{
		engine:  engine,
		entries: make(map[string]*macroexp.Element, len(elems)),
		logger:  o.logger,
	}
	for _, elem := range elems {
		if elem == nil || elem.IsEmpty() {
			continue
		}
		c := elem.Clone()
		s.entries[c.Key()] = c
		s.order = append(s.order, c)
	}

	return s, nil
}

// Engine 返回内部引擎。
func (s *Settings) Engine() *macroexp.Engine { return s.engine }

// Keys 返回原始大小写的全部 key。
func (s *Settings) Keys() []string {
	keys := make([]string, len(s.order))
	for i, elem := range s.order {
		keys[i] = elem.Identifier()
	}

	return keys
}

// Raw 返回未求值的原始值。
func (s *Settings) Raw(key string) (*macroexp.Element, bool) {
	elem, ok := s.entries[macroexp.NormalizeKey(key)]

	return elem, ok
}

// Evaluate 用设置引擎展开任意文本。
func (s *Settings) Evaluate(text string) (string, error) {
	return s.engine.EvaluateString(text)
}

// Get 返回 key 求值后的值，key 忽略大小写。
func (s *Settings) Get(key string) (string, error) {
	elem, ok := s.Raw(key)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if elem.IsNull() {
		return "", fmt.Errorf("%w: %q", ErrNull, key)
	}

	v, err := s.engine.EvaluateString(elem.Value())
	if err != nil {
		return "", fmt.Errorf("settings: evaluate %q: %w", key, err)
	}

	return v, nil
}

// String 返回 key 的值，不存在、为 null 或求值失败时返回 def。
func (s *Settings) String(key, def string) string {
	v, err := s.Get(key)
	if err != nil {
		s.logger.Warn("Setting unavailable, using default", "key", key, "default", def, "error", err)

		return def
	}

	return v
}

// Int 返回 key 的正整数值。
//
// 不存在、为 null、求值失败、不是整数或不为正时记录警告并返回 def。
func (s *Settings) Int(key string, def int) int {
	v, err := s.Get(key)
	if err != nil {
		s.logger.Warn("Setting unavailable, using default", "key", key, "default", def, "error", err)

		return def
	}

	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		s.logger.Warn("Setting is not a positive integer, using default", "key", key, "value", v, "default", def)

		return def
	}

	return n
}

// Resolve 求值全部设置，null 值为 nil。任一失败即返回 error。
func (s *Settings) Resolve() (map[string]any, error) {
	out := make(map[string]any, len(s.order))
	for _, elem := range s.order {
		if elem.IsNull() {
			out[elem.Identifier()] = nil

			continue
		}
		v, err := s.Get(elem.Identifier())
		if err != nil {
			return nil, err
		}
		out[elem.Identifier()] = v
	}

	return out, nil
}

// Decode 求值全部设置并解码到结构体。
//
// "db.host" 形式的 key 还原为嵌套对象，字段按 json tag 匹配，允许弱类型转换。
// 同时存在 "db" 与 "db.host" 时返回 [ErrPathConflict]。
func (s *Settings) Decode(out any) error {
	flat, err := s.Resolve()
	if err != nil {
		return err
	}

	nested := make(map[string]any)
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		if err := setPath(nested, strings.Split(key, "."), flat[key]); err != nil {
			return fmt.Errorf("%w: %q", err, key)
		}
	}

	if err := cfgm.Decode(nested, out); err != nil {
		return fmt.Errorf("settings: decode: %w", err)
	}

	return nil
}

func setPath(dst map[string]any, parts []string, value any) error {
	for _, part := range parts[:len(parts)-1] {
		cur, exists := dst[part]
		if !exists {
			next := make(map[string]any)
			dst[part] = next
			dst = next

			continue
		}
		next, ok := cur.(map[string]any)
		if !ok {
			return ErrPathConflict
		}
		dst = next
	}

	leaf := parts[len(parts)-1]
	if _, exists := dst[leaf]; exists {
		return ErrPathConflict
	}
	dst[leaf] = value

	return nil
}
