package settings

import (
	"fmt"

	"github.com/lwmacct/251207-go-pkg-macroexp/internal/config"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/kvstore"
	"github.com/lwmacct/251207-go-pkg-macroexp/pkg/macroexp"
)

// LoadElements 按来源配置读取原始设置：设置了 SQLite 时读表，否则读文件。
func LoadElements(src config.SourceConfig) ([]*macroexp.Element, error) {
	if src.SQLite != "" {
		store, err := kvstore.OpenSQLite(src.SQLite, src.Table)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		return store.Load()
	}

	if src.File == "" {
		return nil, fmt.Errorf("settings: no source configured")
	}

	return kvstore.LoadFile(src.File)
}

// FromConfig 按应用配置创建 Settings。
func FromConfig(cfg *config.Config, opts ...Option) (*Settings, error) {
	profile, err := cfg.Delimiters.Profile()
	if err != nil {
		return nil, err
	}

	elems, err := LoadElements(cfg.Source)
	if err != nil {
		return nil, err
	}

	return New(elems, profile, append([]Option{WithMaxPasses(cfg.Engine.MaxPasses)}, opts...)...)
}
