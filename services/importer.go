package services

import (
	"errors"
	"fmt"
	"time"

	"csvtogithub/api"
	"csvtogithub/config"
	"csvtogithub/models"
	"csvtogithub/utils"
)

// ImportService はCSVからGitHub Projectへのタスクインポートを処理します
type ImportService struct {
	config  *config.Config
	client  *api.GitHubClient
	csvProc *CSVProcessor
}

// NewImportService は新しいインポートサービスを作成します
func NewImportService(cfg *config.Config, client *api.GitHubClient, csvProc *CSVProcessor) *ImportService {
	return &ImportService{
		config:  cfg,
		client:  client,
		csvProc: csvProc,
	}
}

// Run はインポート処理全体を実行します
// 行単位のエラーは報告して処理を継続し、1行でも失敗があればエラーを返します
// 認証エラーは以降のすべての行が同じ失敗になるため即座に中断します
func (s *ImportService) Run() error {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "インポート処理")

	// GitHub認証チェック
	login, err := s.client.CheckAuth()
	if err != nil {
		return fmt.Errorf("GitHub認証エラー: %w", err)
	}
	utils.LogInfo("GitHub認証成功: %s", login)

	// Projectとフィールド定義の取得
	project, err := s.client.GetProject(s.config.ProjectOwner, s.config.ProjectNumber)
	if err != nil {
		return fmt.Errorf("Project取得エラー: %w", err)
	}

	// issueモードではリポジトリIDを先に解決する
	var repoID string
	if !s.config.Draft {
		repoID, err = s.client.GetRepositoryID(s.config.Repo)
		if err != nil {
			return fmt.Errorf("リポジトリID取得エラー: %w", err)
		}
	}

	// CSVの読み込み
	rows, err := s.csvProc.ReadTasksCSV(s.config.CSVPath)
	if err != nil {
		return fmt.Errorf("CSV読み込みエラー: %w", err)
	}

	if len(rows) == 0 {
		utils.LogInfo("処理する行がありません")
		return nil
	}

	utils.LogInfo("インポートを開始します: %d 行", len(rows))

	// 各行を順番に処理する
	succeeded := 0
	failed := 0

	for _, row := range rows {
		result := s.processRow(row, project, repoID)

		if result.Err != nil {
			failed++
			utils.LogError("行 %d (%s) の処理に失敗: %v", result.Row, result.Title, result.Err)

			if errors.Is(result.Err, api.ErrAuth) {
				return fmt.Errorf("認証が拒否されたため中断します: %w", result.Err)
			}
		} else {
			succeeded++
			utils.LogInfo("行 %d (%s) の処理が完了: アイテム %s", result.Row, result.Title, result.ItemID)
		}

		// APIレート制限対策のミューテーション間待機
		if s.config.RateSleep > 0 {
			time.Sleep(s.config.RateSleep)
		}
	}

	utils.LogInfo("インポートが完了しました: 成功=%d, 失敗=%d", succeeded, failed)

	if failed > 0 {
		return fmt.Errorf("%d 行の処理に失敗しました", failed)
	}
	return nil
}

// processRow は1行を処理します: 変換→作成→Projectへの追加→フィールド更新
// 作成済みのリモート状態はロールバックしません（追加に失敗してもイシューは残ります）
func (s *ImportService) processRow(row Row, project *models.Project, repoID string) models.ImportResult {
	result := models.ImportResult{Row: row.Line}

	if row.Err != nil {
		result.Err = row.Err
		return result
	}

	result.Title = firstOf(row.Record, "Title", "title")

	// タスクへの変換
	task, err := s.csvProc.MapRecord(row.Record)
	if err != nil {
		result.Err = err
		return result
	}
	result.Title = task.Title

	// 担当者の解決
	assigneeIDs, err := s.client.GetUserIDs(task.Assignees)
	if err != nil {
		result.Err = err
		return result
	}

	var itemID string

	if s.config.Draft {
		// Draft IssueをProjectに直接作成する（Projectへの追加は不要）
		itemID, err = s.client.AddDraftIssue(project.ID, task.Title, task.Body, assigneeIDs)
		if err != nil {
			result.Err = fmt.Errorf("Draft Issue作成エラー: %w", err)
			return result
		}
	} else {
		// リポジトリにイシューを作成し、Projectに追加する
		labelIDs, err := s.client.GetLabelIDs(s.config.Repo, task.Labels)
		if err != nil {
			result.Err = err
			return result
		}

		issue, err := s.client.CreateIssue(repoID, task.Title, task.Body, labelIDs, assigneeIDs)
		if err != nil {
			result.Err = fmt.Errorf("イシュー作成エラー: %w", err)
			return result
		}
		utils.LogInfo("イシュー #%d を作成しました: %s", issue.Number, issue.URL)

		itemID, err = s.client.AddItemToProject(project.ID, issue.ID)
		if err != nil {
			result.Err = fmt.Errorf("Projectへの追加エラー: %w", err)
			return result
		}
	}

	// 追加カラムに対応するProjectフィールドを設定する
	// フィールド更新の失敗は警告に留め、行の失敗にはしない
	for name, value := range task.Fields {
		field, ok := project.Fields[name]
		if !ok {
			// Projectのフィールドに対応しないカラムは無視する
			continue
		}
		if err := s.client.UpdateFieldValue(project.ID, itemID, field, value); err != nil {
			utils.LogWarn("フィールド '%s' を '%s' に設定できませんでした: %v", name, value, err)
		}
	}

	result.ItemID = itemID
	return result
}
