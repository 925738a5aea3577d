package cfgm

import (
	"fmt"

	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp/builtin"
)

// newExpander 创建用于展开配置字符串的引擎，Env 总是第一个 evaluator。
func newExpander(o *options) (*macroexp.Engine, error) {
	profile := o.profile
	if profile == nil {
		profile = macroexp.DefaultProfile()
	}

	evaluators := append([]macroexp.Evaluator{builtin.NewEnv(profile)}, o.evaluators...)

	return macroexp.New(profile, macroexp.WithEvaluators(evaluators...))
}

// expandStrings 原地展开 map 中的全部字符串值（含切片元素）。
//
// 定界符不平衡的字符串视为字面量，原样保留。
func expandStrings(eng *macroexp.Engine, data map[string]any, prefix string) error {
	for key, value := range data {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		expanded, err := expandValue(eng, value, path)
		if err != nil {
			return err
		}
		data[key] = expanded
	}

	return nil
}

func expandValue(eng *macroexp.Engine, value any, path string) (any, error) {
	switch typed := value.(type) {
	case string:
		if !eng.Profile().IsBalanced(typed) {
			return typed, nil
		}
		out, err := eng.EvaluateString(typed)
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", path, err)
		}

		return out, nil
	case map[string]any:
		return typed, expandStrings(eng, typed, path)
	case []any:
		for i := range typed {
			v, err := expandValue(eng, typed[i], fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			typed[i] = v
		}

		return typed, nil
	default:
		return value, nil
	}
}
