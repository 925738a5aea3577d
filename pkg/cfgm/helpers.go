package cfgm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	yamlv3 "go.yaml.in/yaml/v3"
)

// ErrNotObject 配置文件根节点不是对象。
var ErrNotObject = errors.New("cfgm: config root must be object")

var (
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
)

// Format 是配置文件格式，由扩展名决定。
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatTOML
)

// FormatOf 按扩展名返回文件格式，未知扩展名按 YAML 处理。
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// 解析
// ═══════════════════════════════════════════════════════════════════════════

// ParseFile 读取并解析配置文件，返回 key 为字符串的嵌套 map。
func ParseFile(path string) (map[string]any, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return nil, err
	}

	return ParseBytes(FormatOf(path), content)
}

// ParseBytes 按格式解析内容。空文档返回空 map，根节点不是对象返回 [ErrNotObject]。
func ParseBytes(format Format, content []byte) (map[string]any, error) {
	var raw any
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(content, &raw)
	case FormatTOML:
		var doc map[string]any
		err = toml.Unmarshal(content, &doc)
		raw = doc
	default:
		err = yamlv3.Unmarshal(content, &raw)
	}
	if err != nil {
		return nil, err
	}

	normalized := normalizeMapKeys(raw)
	if normalized == nil {
		return map[string]any{}, nil
	}
	m, ok := normalized.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}

	return m, nil
}

func normalizeMapKeys(val any) any {
	switch typed := val.(type) {
	case map[string]any:
		if typed == nil {
			return nil
		}
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = normalizeMapKeys(value)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[fmt.Sprintf("%v", key)] = normalizeMapKeys(value)
		}

		return out
	case []map[string]any:
		// TOML 的表数组
		out := make([]any, len(typed))
		for i := range typed {
			out[i] = normalizeMapKeys(typed[i])
		}

		return out
	case []any:
		for i := range typed {
			typed[i] = normalizeMapKeys(typed[i])
		}

		return typed
	default:
		return val
	}
}

// Flatten 把嵌套 map 展平为以 "." 连接的 key。
//
// 非空的子 map 继续展开，其余值（包括 nil、空 map 和切片）作为叶子保留。
func Flatten(data map[string]any) map[string]any {
	out := make(map[string]any)
	flatten(data, "", out)

	return out
}

func flatten(data map[string]any, prefix string, out map[string]any) {
	for key, value := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok && len(child) > 0 {
			flatten(child, fullKey, out)

			continue
		}
		out[fullKey] = value
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// map 操作
// ═══════════════════════════════════════════════════════════════════════════

func mergeMaps(dst, src map[string]any) {
	for key, value := range src {
		if valueMap, ok := value.(map[string]any); ok {
			if dstMap, ok := dst[key].(map[string]any); ok {
				mergeMaps(dstMap, valueMap)
				continue
			}
		}

		dst[key] = value
	}
}

func setByPath(dst map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := dst
	for i, part := range parts {
		if i == len(parts)-1 {
			current[part] = value

			return
		}

		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
}

// Decode 把 map 解码到结构体，key 取 json tag，允许弱类型转换（如 "8080" → int）。
func Decode(data map[string]any, out any) error {
	conf := &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
	}
	decoder, err := mapstructure.NewDecoder(conf)
	if err != nil {
		return err
	}

	return decoder.Decode(data)
}

// ═══════════════════════════════════════════════════════════════════════════
// 结构体反射
// ═══════════════════════════════════════════════════════════════════════════

func configTagName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}

	return name
}

func isStructType(typ reflect.Type) bool {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	return typ.Kind() == reflect.Struct && typ != durationType && typ != timeType
}

// structToMap 把配置结构体转为以 json tag 为 key 的嵌套 map。
func structToMap(cfg any) map[string]any {
	val := reflect.ValueOf(cfg)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return map[string]any{}
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return map[string]any{}
	}

	out := make(map[string]any)
	typ := val.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		key := configTagName(field)
		if field.PkgPath != "" || key == "" {
			continue
		}

		fieldVal := val.Field(i)
		if isStructType(field.Type) {
			out[key] = structToMap(fieldVal.Interface())

			continue
		}
		out[key] = fieldVal.Interface()
	}

	return out
}

// walkLeaves 按 "a.b" 形式的路径遍历结构体的叶子字段。
func walkLeaves(typ reflect.Type, prefix string, fn func(path string, typ reflect.Type)) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return
	}

	for i := range typ.NumField() {
		field := typ.Field(i)
		key := configTagName(field)
		if key == "" {
			continue
		}

		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if isStructType(field.Type) {
			walkLeaves(field.Type, path, fn)

			continue
		}
		fn(path, field.Type)
	}
}
