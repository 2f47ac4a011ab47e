package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfig は設定不備を表すエラーです
var ErrConfig = errors.New("設定エラー")

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// GitHub API設定
	Token         string `yaml:"token"`
	ProjectOwner  string `yaml:"project_owner"`
	ProjectNumber int    `yaml:"project_number"`
	Repo          string `yaml:"repo"`  // owner/name 形式 (issueモードで必須)
	Draft         bool   `yaml:"draft"` // trueならDraft IssueをProjectに直接作成する

	// 入力設定
	CSVPath   string `yaml:"csv_path"`
	Delimiter string `yaml:"delimiter"`

	// ミューテーション間の待機時間（環境変数またはフラグでのみ指定可能）
	RateSleep time.Duration `yaml:"-"`
}

// LoadConfig は設定ファイルと環境変数から設定を読み込みます
// 優先順位: 環境変数 > YAMLファイル > デフォルト値
func LoadConfig(configFile string) (*Config, error) {
	// .envファイルを読み込む
	_ = godotenv.Load()

	config := &Config{
		CSVPath:   "tasks.csv",
		Delimiter: ",",
		RateSleep: 250 * time.Millisecond,
	}

	// YAML設定ファイルの読み込み（指定された場合のみ）
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("%w: 設定ファイル読み込み失敗: %v", ErrConfig, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: 設定ファイル解析失敗: %v", ErrConfig, err)
		}
	}

	// 環境変数で上書き
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		config.Token = v
	}
	if v := os.Getenv("PROJECT_OWNER"); v != "" {
		config.ProjectOwner = v
	}
	if v := os.Getenv("PROJECT_NUMBER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: PROJECT_NUMBERが数値ではありません: %s", ErrConfig, v)
		}
		config.ProjectNumber = n
	}
	if v := os.Getenv("REPO"); v != "" {
		config.Repo = v
	}
	if v := os.Getenv("CSV_PATH"); v != "" {
		config.CSVPath = v
	}
	if v := os.Getenv("CSV_DELIMITER"); v != "" {
		config.Delimiter = v
	}
	if v := os.Getenv("RATE_SLEEP"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%w: RATE_SLEEPの形式が不正です: %s", ErrConfig, v)
		}
		config.RateSleep = d
	}

	return config, nil
}

// Validate は選択されたモードに必要な設定が揃っているかを確認します
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("%w: GITHUB_TOKENが設定されていません", ErrConfig)
	}
	if c.ProjectOwner == "" {
		return fmt.Errorf("%w: Projectのオーナーが設定されていません", ErrConfig)
	}
	if c.ProjectNumber < 1 {
		return fmt.Errorf("%w: Project番号が設定されていません", ErrConfig)
	}
	if !c.Draft {
		if c.Repo == "" {
			return fmt.Errorf("%w: issueモードではリポジトリ (owner/name) の指定が必要です。またはdraftモードを使用してください", ErrConfig)
		}
		if !strings.Contains(c.Repo, "/") {
			return fmt.Errorf("%w: リポジトリは owner/name 形式で指定してください: %s", ErrConfig, c.Repo)
		}
	}
	if len(c.Delimiter) != 1 {
		return fmt.Errorf("%w: 区切り文字は1文字で指定してください: %q", ErrConfig, c.Delimiter)
	}
	return nil
}

// DelimiterRune はCSV区切り文字をruneとして返します
func (c *Config) DelimiterRune() rune {
	if c.Delimiter == "" {
		return ','
	}
	return []rune(c.Delimiter)[0]
}
