package saved

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"recipe-helper/internal/core/recipe"
	"recipe-helper/internal/pkg/common"

	"go.uber.org/zap"
)

// Entry 收藏清單中的一筆紀錄
type Entry struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	SavedAt   string   `json:"saved_at"`
	Allergens []string `json:"allergens"`
}

// Store 收藏清單（JSON 陣列檔）與食譜卡目錄
type Store struct {
	Path    string
	CardDir string

	now func() time.Time
	mu  sync.Mutex
}

// NewStore 創建收藏儲存
func NewStore(path, cardDir string) *Store {
	return &Store{Path: path, CardDir: cardDir, now: time.Now}
}

// Save 將食譜追加到收藏清單；既有檔案無法讀取或格式錯誤時從空清單開始
func (s *Store) Save(r recipe.Recipe) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()

	allergens := r.Allergens
	if allergens == nil {
		allergens = []string{}
	}
	entry := Entry{
		ID:        common.GenerateUUID(),
		Title:     r.Title,
		SavedAt:   s.now().UTC().Format(time.RFC3339),
		Allergens: allergens,
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode saved recipes: %w", err)
	}
	if err := writeFileAtomic(s.Path, data); err != nil {
		return Entry{}, fmt.Errorf("failed to write saved recipes: %w", err)
	}

	common.LogInfo("食譜已收藏", zap.String("title", r.Title), zap.String("path", s.Path))
	return entry, nil
}

// List 讀取收藏清單；檔案不存在時回傳空清單
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read saved recipes: %w", err)
	}

	var entries []Entry
	if err := common.ParseJSONBytes(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse saved recipes: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// WriteCard 將可列印的食譜卡寫入 CardDir，回傳檔案路徑
func (s *Store) WriteCard(r recipe.Recipe) (string, error) {
	if err := os.MkdirAll(s.CardDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create card directory: %w", err)
	}

	path := filepath.Join(s.CardDir, SafeFilename(r.Title)+".txt")
	if err := os.WriteFile(path, []byte(recipe.FormatCard(r)), 0644); err != nil {
		return "", fmt.Errorf("failed to write recipe card: %w", err)
	}
	return path, nil
}

func (s *Store) load() []Entry {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			common.LogWarn("收藏檔無法讀取，重新建立", zap.String("path", s.Path), zap.Error(err))
		}
		return []Entry{}
	}

	var entries []Entry
	if err := common.ParseJSONBytes(data, &entries); err != nil || entries == nil {
		common.LogWarn("收藏檔格式錯誤，重新建立", zap.String("path", s.Path), zap.Error(err))
		return []Entry{}
	}
	return entries
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".saved-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var unsafeFilenameChars = regexp.MustCompile(`[^0-9A-Za-z_-]`)

// SafeFilename 將標題轉為安全的檔名（不含副檔名）
func SafeFilename(title string) string {
	name := strings.Trim(unsafeFilenameChars.ReplaceAllString(title, "_"), "_")
	if name == "" {
		return "recipe"
	}
	return name
}
