package main

import (
	"flag"
	"fmt"
	"os"

	"csvtogithub/api"
	"csvtogithub/config"
	"csvtogithub/utils"
)

func main() {
	// コマンドラインフラグの定義
	configFile := flag.String("config", "", "YAML設定ファイルのパス")
	help := flag.Bool("help", false, "ヘルプを表示する")

	// フラグのパース
	flag.Parse()

	// ヘルプフラグが指定された場合はヘルプを表示
	if *help {
		printHelp()
		return
	}

	utils.LogInfo("GitHub認証確認ツール")

	// 設定の読み込み
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		utils.LogError("設定の読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	if cfg.Token == "" {
		utils.LogError("GITHUB_TOKENが設定されていません")
		os.Exit(1)
	}

	// GitHubクライアントの初期化
	client := api.NewGitHubClient(cfg)

	// 認証チェック
	utils.LogInfo("GitHub APIの認証を確認しています...")
	login, err := client.CheckAuth()
	if err != nil {
		utils.LogError("GitHub認証エラー: %v", err)
		utils.LogError("トークンを確認してください。")
		os.Exit(1)
	}

	utils.LogInfo("GitHub認証成功！ ログイン名: %s", login)

	// Projectの設定があれば到達性も確認する
	if cfg.ProjectOwner != "" && cfg.ProjectNumber > 0 {
		utils.LogInfo("Project %s/#%d を確認しています...", cfg.ProjectOwner, cfg.ProjectNumber)
		project, err := client.GetProject(cfg.ProjectOwner, cfg.ProjectNumber)
		if err != nil {
			utils.LogError("Project取得エラー: %v", err)
			os.Exit(1)
		}
		utils.LogInfo("Projectに到達できました: %s (フィールド数: %d)", project.ID, len(project.Fields))
	}

	utils.LogInfo("GitHub APIの認証情報は正常です。")
}

// ヘルプメッセージを表示する関数
func printHelp() {
	fmt.Printf(`
GitHub認証確認ツール

使用方法:
  %s [オプション]

オプション:
  -config ファイル     YAML設定ファイルのパス
  -help                このヘルプを表示する

環境変数:
  GITHUB_TOKEN        GitHub APIトークン (必須)
  PROJECT_OWNER       Projectのオーナー (任意)
  PROJECT_NUMBER      Projectの番号 (任意)

説明:
  このツールはGitHub APIトークンが正しく設定されているかを確認します。
  PROJECT_OWNERとPROJECT_NUMBERが設定されていれば、Project (v2) への
  到達性も確認します。ミューテーションは実行しません。
`, os.Args[0])
}
