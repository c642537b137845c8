package gate

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed brands.yaml
var defaultBrandsYAML []byte

type brandFile struct {
	Brands []string `yaml:"brands"`
}

// BrandList is the static high-risk brand set the IP gate screens
// against. It supports atomic reload so a file watcher can swap the list
// without the gate ever seeing a partial state.
type BrandList struct {
	mu     sync.RWMutex
	brands []string
}

// DefaultBrandList returns the embedded brand list
func DefaultBrandList() *BrandList {
	bl := &BrandList{}
	// The embedded file is compiled in; a parse failure is a build bug.
	if err := bl.loadBytes(defaultBrandsYAML); err != nil {
		panic(fmt.Sprintf("embedded brands.yaml: %v", err))
	}
	return bl
}

// LoadBrandList reads a brand list from a YAML file
func LoadBrandList(path string) (*BrandList, error) {
	bl := &BrandList{}
	if err := bl.Reload(path); err != nil {
		return nil, err
	}
	return bl, nil
}

// Reload replaces the list from the file at path. On error the previous
// list stays in place.
func (bl *BrandList) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return bl.loadBytes(data)
}

func (bl *BrandList) loadBytes(data []byte) error {
	var f brandFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing brand list: %w", err)
	}
	if len(f.Brands) == 0 {
		return fmt.Errorf("brand list is empty")
	}
	bl.mu.Lock()
	bl.brands = f.Brands
	bl.mu.Unlock()
	return nil
}

// Brands returns a snapshot of the current list
func (bl *BrandList) Brands() []string {
	bl.mu.RLock()
	defer bl.mu.RUnlock()
	out := make([]string, len(bl.brands))
	copy(out, bl.brands)
	return out
}
