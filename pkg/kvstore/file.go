package kvstore

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/cfgm"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

// LoadFile 读取 YAML/JSON/TOML 文件并返回按 key 排序的元素列表。
//
// 嵌套对象以 "." 展平为 key（db.host），null 值成为 null 元素，
// 其余标量转为字符串，列表与空对象以 JSON 文本保存。
func LoadFile(path string) ([]*macroexp.Element, error) {
	data, err := cfgm.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("kvstore: load %s: %w", path, err)
	}

	return Elements(data)
}

// Elements 把嵌套 map 转为按 key 排序的元素列表。
func Elements(data map[string]any) ([]*macroexp.Element, error) {
	flat := cfgm.Flatten(data)
	elems := make([]*macroexp.Element, 0, len(flat))
	for _, key := range slices.Sorted(maps.Keys(flat)) {
		value := flat[key]
		if value == nil {
			elems = append(elems, macroexp.NewNullElement(key))

			continue
		}

		text, err := stringify(value)
		if err != nil {
			return nil, fmt.Errorf("kvstore: %s: %w", key, err)
		}
		elems = append(elems, macroexp.NewElement(key, text))
	}

	return elems, nil
}

func stringify(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}

		return string(b), nil
	}
}
