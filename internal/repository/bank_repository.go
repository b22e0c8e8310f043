package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"quizbot_backend/internal/model"
	"quizbot_backend/internal/util"
)

// BankRepository 题库文件访问。题库是本地目录下的 JSON 文件，
// 由外部工具编辑，这里只读不写；每次出题都重新读文件，不做缓存。
type BankRepository struct {
	Dir string
}

func NewBankRepository(dir string) *BankRepository {
	return &BankRepository{Dir: dir}
}

// ListBanks 列出可用题库名（去掉 .json 扩展名，按名称排序）
func (r *BankRepository) ListBanks() ([]string, error) {
	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// LoadBank 读取并解析指定题库
func (r *BankRepository) LoadBank(name string) (*model.Bank, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w：%s", util.ErrBankNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(r.Dir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w：%s", util.ErrBankNotFound, name)
		}
		return nil, err
	}

	var bank model.Bank
	if err := json.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("%w：%s", util.ErrNoQuestions, name)
	}
	bank.Name = name

	return &bank, nil
}

// CountQuestions 返回题库当前的总题数，读取失败时按 0 处理
func (r *BankRepository) CountQuestions(name string) int {
	bank, err := r.LoadBank(name)
	if err != nil {
		return 0
	}
	return len(bank.Questions)
}
