package models

// CSVRecord はCSVの1行を表します (ヘッダー名→値のマップ)
type CSVRecord map[string]string

// Task はCSVの1行から作られたタスクを表します
type Task struct {
	Title     string
	Body      string
	Labels    []string
	Assignees []string

	// Fields はProjectフィールド更新用の追加カラムです (カラム名→値)
	Fields map[string]string
}

// FieldOption はシングルセレクトフィールドの選択肢を表します
type FieldOption struct {
	ID   string
	Name string
}

// ProjectField はProject (v2) のフィールド定義を表します
type ProjectField struct {
	ID       string
	Name     string
	DataType string
	Options  []FieldOption
}

// Project はGitHub Project (v2) を表します
type Project struct {
	ID     string
	Fields map[string]ProjectField // フィールド名→定義
}

// Issue は作成されたリポジトリイシューを表します
type Issue struct {
	ID     string `json:"id"` // ノードID
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// ImportResult は1行分の処理結果を表します
type ImportResult struct {
	Row    int // CSVのデータ行番号 (1始まり)
	Title  string
	ItemID string // ProjectアイテムのノードID (成功時)
	Err    error  // 失敗時のエラー
}
