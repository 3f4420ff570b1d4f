package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"Regnum/internal/game/domain"
)

//go:embed regions.yaml
var defaultRegions []byte

type file struct {
	Regions []domain.Region `yaml:"regions"`
}

// Regions 内置的地图分区。
func Regions() ([]domain.Region, error) {
	return Parse(defaultRegions)
}

// LoadFile 从外部文件读取分区（覆盖内置表）。
func LoadFile(path string) ([]domain.Region, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse 校验名字非空且不重复。
func Parse(raw []byte) ([]domain.Region, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}
	if len(f.Regions) == 0 {
		return nil, fmt.Errorf("parse regions: empty catalog")
	}
	seen := make(map[string]struct{}, len(f.Regions))
	for i, r := range f.Regions {
		if r.Name == "" {
			return nil, fmt.Errorf("parse regions: #%d has empty name", i)
		}
		if _, ok := seen[r.Name]; ok {
			return nil, fmt.Errorf("parse regions: duplicate %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return f.Regions, nil
}
