package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"csvtogithub/api"
	"csvtogithub/config"
	"csvtogithub/services"
	"csvtogithub/utils"
)

func main() {
	// コマンドラインフラグの定義
	csvPath := flag.String("csv", "", "インポートするCSVファイルのパス（指定しない場合は環境変数から取得）")
	projectOwner := flag.String("owner", "", "Projectのオーナー（orgまたはuser）")
	projectNumber := flag.Int("number", 0, "Projectの番号（URLに表示される番号）")
	repo := flag.String("repo", "", "イシューを作成するリポジトリ（owner/name形式）")
	draft := flag.Bool("draft", false, "リポジトリのイシューの代わりにDraft IssueをProjectに作成する")
	delimiter := flag.String("delimiter", "", "CSVの区切り文字（デフォルト ,）")
	rateSleep := flag.Duration("rate-sleep", 0, "ミューテーション間の待機時間（デフォルト 250ms）")
	configFile := flag.String("config", "", "YAML設定ファイルのパス")
	help := flag.Bool("help", false, "ヘルプを表示する")

	// フラグのパース
	flag.Parse()

	// ヘルプフラグが指定された場合はヘルプを表示
	if *help {
		printHelp()
		return
	}

	// 開始時間の記録
	startTime := time.Now()

	utils.LogInfo("CSV → GitHub Project インポートツール")

	// 設定の読み込み
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		utils.LogError("設定の読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	// コマンドラインで指定された値で設定を上書き
	if *csvPath != "" {
		cfg.CSVPath = *csvPath
	}
	if *projectOwner != "" {
		cfg.ProjectOwner = *projectOwner
	}
	if *projectNumber > 0 {
		cfg.ProjectNumber = *projectNumber
	}
	if *repo != "" {
		cfg.Repo = *repo
	}
	if *delimiter != "" {
		cfg.Delimiter = *delimiter
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "draft":
			cfg.Draft = *draft
		case "rate-sleep":
			cfg.RateSleep = *rateSleep
		}
	})

	// モードに必要な設定が揃っているか確認
	if err := cfg.Validate(); err != nil {
		utils.LogError("%v", err)
		os.Exit(1)
	}

	if cfg.Draft {
		utils.LogInfo("モード: Draft Issue作成 (Project: %s/#%d)", cfg.ProjectOwner, cfg.ProjectNumber)
	} else {
		utils.LogInfo("モード: イシュー作成 (リポジトリ: %s, Project: %s/#%d)", cfg.Repo, cfg.ProjectOwner, cfg.ProjectNumber)
	}

	// 必要なサービスの初期化
	client := api.NewGitHubClient(cfg)
	csvProc := services.NewCSVProcessor(cfg)
	importService := services.NewImportService(cfg, client, csvProc)

	// インポートの実行
	if err := importService.Run(); err != nil {
		utils.LogError("インポート処理に失敗しました: %v", err)
		os.Exit(1)
	}

	// 合計実行時間の表示
	elapsed := time.Since(startTime)
	utils.LogInfo("すべての処理が完了しました。合計実行時間: %s", elapsed)
}

// ヘルプメッセージを表示する関数
func printHelp() {
	fmt.Printf(`
CSV → GitHub Project (v2) インポートツール

使用方法:
  %s [オプション]

オプション:
  -csv ファイル        インポートするCSVファイル
  -owner オーナー      Projectのオーナー（orgまたはuser）
  -number 番号         Projectの番号（URLに表示される番号）
  -repo リポジトリ     イシューを作成するリポジトリ（owner/name形式）
  -draft               Draft IssueをProjectに直接作成する（-repo不要）
  -delimiter 文字      CSVの区切り文字（デフォルト ,）
  -rate-sleep 時間     ミューテーション間の待機時間（例: 500ms）
  -config ファイル     YAML設定ファイルのパス
  -help                このヘルプを表示する

環境変数:
  GITHUB_TOKEN        GitHub APIトークン (必須)
  PROJECT_OWNER       Projectのオーナー
  PROJECT_NUMBER      Projectの番号
  REPO                イシューを作成するリポジトリ（owner/name形式）
  CSV_PATH            CSVファイルパス (デフォルト: tasks.csv)
  CSV_DELIMITER       CSVの区切り文字 (デフォルト: ,)
  RATE_SLEEP          ミューテーション間の待機時間 (デフォルト: 250ms)

説明:
  CSVの各行からGitHubのイシュー（またはDraft Issue）を作成し、
  GitHub Project (v2) にアイテムとして追加します。

  認識されるカラム: Title (必須), Body / Description, Labels, Assignees。
  その他のカラムは、同名のProjectフィールドがあればその値として設定されます。

  行単位のエラーは報告して処理を継続します。1行でも失敗があれば
  終了コードは0以外になります。

例:
  # リポジトリにイシューを作成してProjectに追加
  %s -csv tasks.csv -owner my-org -number 5 -repo my-org/my-repo

  # Draft IssueをProjectに直接作成
  %s -csv tasks.csv -owner my-user -number 3 -draft
`, os.Args[0], os.Args[0], os.Args[0])
}
