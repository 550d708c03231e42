package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/palemoky/fibbing-it/internal/game/rng"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Prompt 题目
type Prompt struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Bank 题库，加载后只读
type Bank struct {
	prompts []Prompt
}

type bankFile struct {
	Prompts []Prompt `yaml:"prompts"`
}

// Default 内置题库
func Default() *Bank {
	b, err := Parse(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts invalid: %v", err))
	}
	return b
}

// Load 从文件加载题库，path 为空时返回内置题库
func Load(path string) (*Bank, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 题库，id 必须唯一且题目答案非空
func Parse(data []byte) (*Bank, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}

	seen := make(map[string]bool, len(f.Prompts))
	for i, p := range f.Prompts {
		if p.ID == "" || strings.TrimSpace(p.Question) == "" || strings.TrimSpace(p.Answer) == "" {
			return nil, fmt.Errorf("prompt #%d: id, question and answer are required", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("prompt #%d: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
	}
	if len(f.Prompts) == 0 {
		return nil, fmt.Errorf("prompt bank is empty")
	}
	return &Bank{prompts: f.Prompts}, nil
}

// NewBank 由题目列表构建题库（测试用）
func NewBank(prompts ...Prompt) *Bank {
	return &Bank{prompts: slices.Clone(prompts)}
}

// Len 题目数量
func (b *Bank) Len() int {
	return len(b.prompts)
}

// Get 按 id 获取题目
func (b *Bank) Get(id string) (Prompt, bool) {
	for _, p := range b.prompts {
		if p.ID == id {
			return p, true
		}
	}
	return Prompt{}, false
}

// Pick 随机选取一道未使用过的题目，题库耗尽时返回 false
func (b *Bank) Pick(used []string, src *rng.Source) (Prompt, bool) {
	candidates := make([]Prompt, 0, len(b.prompts))
	for _, p := range b.prompts {
		if !slices.Contains(used, p.ID) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return Prompt{}, false
	}
	return candidates[src.IntN(len(candidates))], true
}
