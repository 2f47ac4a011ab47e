package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"csvtogithub/config"
	"csvtogithub/models"
	"csvtogithub/utils"
)

// ErrValidation は行の必須項目が欠けていることを表すエラーです
var ErrValidation = errors.New("検証エラー")

// 予約カラム（Projectフィールド更新の対象にしないカラム）
var reservedColumns = map[string]bool{
	"Title": true, "title": true,
	"Body": true, "body": true,
	"Description": true, "description": true,
	"Labels": true, "labels": true,
	"Assignees": true, "assignees": true,
}

// Row はCSVの1データ行の読み込み結果を表します
type Row struct {
	Line   int // CSVファイル内の物理行番号 (ヘッダーは1行目)
	Record models.CSVRecord
	Err    error // 行の解析に失敗した場合のエラー
}

// CSVProcessor はCSVファイルの読み込みと行の変換を担当します
type CSVProcessor struct {
	config *config.Config
}

// NewCSVProcessor は新しいCSVプロセッサーを作成します
func NewCSVProcessor(cfg *config.Config) *CSVProcessor {
	return &CSVProcessor{
		config: cfg,
	}
}

// ReadTasksCSV はタスクCSVを読み込みます
// ヘッダーにTitleカラムがあることを読み込み時に検証します
// フィールド数が合わない行はエラー付きの行として返し、残りの行の処理は継続します
func (p *CSVProcessor) ReadTasksCSV(path string) ([]Row, error) {
	utils.LogInfo("CSVファイル '%s' を読み込みます", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("CSVオープンエラー: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = p.config.DelimiterRune()

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSVにヘッダー行がありません")
	}
	if err != nil {
		return nil, fmt.Errorf("ヘッダー読み込みエラー: %w", err)
	}

	if !hasTitleColumn(headers) {
		return nil, fmt.Errorf("%w: ヘッダーにTitleカラムがありません", ErrValidation)
	}

	var rows []Row
	line := 1

	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// フィールド数不一致などの解析エラーは行単位の失敗として記録し、読み込みは継続する
			rows = append(rows, Row{
				Line: line,
				Err:  fmt.Errorf("CSV解析エラー: %w", err),
			})
			continue
		}

		rowData := make(models.CSVRecord, len(headers))
		for i, value := range record {
			rowData[headers[i]] = value
		}
		rows = append(rows, Row{Line: line, Record: rowData})
	}

	utils.LogInfo("CSVを読み込みました: %d 行", len(rows))
	return rows, nil
}

// MapRecord はCSVレコードをタスクに変換します
// Titleが空の場合はErrValidationを返します。副作用はありません
func (p *CSVProcessor) MapRecord(record models.CSVRecord) (*models.Task, error) {
	title := firstOf(record, "Title", "title")
	if title == "" {
		return nil, fmt.Errorf("%w: Titleカラムがないか空です", ErrValidation)
	}

	task := &models.Task{
		Title: title,
		Body:  firstOf(record, "Body", "body", "Description", "description"),
	}

	if labelsRaw := firstOf(record, "Labels", "labels"); labelsRaw != "" {
		for _, label := range strings.Split(labelsRaw, ",") {
			if label = strings.TrimSpace(label); label != "" {
				task.Labels = append(task.Labels, label)
			}
		}
	}

	if assigneesRaw := firstOf(record, "Assignees", "assignees"); assigneesRaw != "" {
		for _, assignee := range strings.Split(assigneesRaw, ",") {
			assignee = strings.TrimPrefix(strings.TrimSpace(assignee), "@")
			if assignee != "" {
				task.Assignees = append(task.Assignees, assignee)
			}
		}
	}

	// 予約カラム以外はProjectフィールド更新の候補にする
	for name, value := range record {
		if reservedColumns[name] {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			if task.Fields == nil {
				task.Fields = make(map[string]string)
			}
			task.Fields[name] = value
		}
	}

	return task, nil
}

// hasTitleColumn はヘッダーにTitleカラムが含まれるかを返します
func hasTitleColumn(headers []string) bool {
	for _, h := range headers {
		if h == "Title" || h == "title" {
			return true
		}
	}
	return false
}

// firstOf はレコードから最初に見つかった空でない値を返します
func firstOf(record models.CSVRecord, keys ...string) string {
	for _, key := range keys {
		if value := record[key]; value != "" {
			return value
		}
	}
	return ""
}
