package recipe

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"recipe-helper/internal/pkg/common"
)

//go:embed recipes.json
var defaultCatalogData []byte

// ErrInvalidCatalog 目錄資料格式錯誤或缺少必要欄位
var ErrInvalidCatalog = errors.New("invalid recipe catalog")

// Catalog 唯讀的食譜目錄。
// 建立後內容不再變動，所有查詢方法都可以在多個 goroutine 間共用而不需加鎖。
type Catalog struct {
	recipes []Recipe
	diets   []string
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultCatalog 解析內嵌的預設目錄（只解析一次）
func DefaultCatalog() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = LoadCatalog(bytes.NewReader(defaultCatalogData))
	})
	return defaultCatalog, defaultErr
}

// LoadCatalogFile 從 JSON 檔案載入目錄
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	c, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// LoadCatalog 從 JSON 陣列載入目錄；任何一筆資料錯誤都會讓整個載入失敗
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var recipes []Recipe
	if err := common.DecodeJSON(r, &recipes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if recipes == nil {
		return nil, fmt.Errorf("%w: expected a JSON array of recipes", ErrInvalidCatalog)
	}
	return NewCatalog(recipes)
}

// NewCatalog 以既有的食譜建立目錄，輸入切片會被複製
func NewCatalog(recipes []Recipe) (*Catalog, error) {
	c := &Catalog{recipes: make([]Recipe, 0, len(recipes))}
	for i, r := range recipes {
		if strings.TrimSpace(r.Title) == "" {
			return nil, fmt.Errorf("%w: recipe #%d has no title", ErrInvalidCatalog, i+1)
		}
		c.recipes = append(c.recipes, r.clone().withDefaults())
	}
	c.diets = collectDiets(c.recipes)
	return c, nil
}

// With 回傳加入額外食譜後的新目錄快照，原目錄保持不變
func (c *Catalog) With(extra ...Recipe) (*Catalog, error) {
	all := make([]Recipe, 0, len(c.recipes)+len(extra))
	all = append(all, c.recipes...)
	all = append(all, extra...)
	return NewCatalog(all)
}

// Len 目錄中的食譜數量
func (c *Catalog) Len() int {
	return len(c.recipes)
}

// At 取得第 i 筆（從 0 開始）
func (c *Catalog) At(i int) (Recipe, bool) {
	if i < 0 || i >= len(c.recipes) {
		return Recipe{}, false
	}
	return c.recipes[i].clone(), true
}

// Recipes 回傳所有食譜的副本
func (c *Catalog) Recipes() []Recipe {
	out := make([]Recipe, len(c.recipes))
	for i, r := range c.recipes {
		out[i] = r.clone()
	}
	return out
}

// Diets 目錄中出現過的所有飲食標籤，去重後依字典序排列
func (c *Catalog) Diets() []string {
	return append([]string{}, c.diets...)
}

func collectDiets(recipes []Recipe) []string {
	seen := make(map[string]struct{})
	diets := make([]string, 0)
	for _, r := range recipes {
		for _, d := range r.Diets {
			d = strings.TrimSpace(d)
			if d == "" {
				continue
			}
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			diets = append(diets, d)
		}
	}
	sort.Strings(diets)
	return diets
}
