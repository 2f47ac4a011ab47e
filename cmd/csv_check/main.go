package main

import (
	"flag"
	"fmt"
	"os"

	"csvtogithub/config"
	"csvtogithub/services"
	"csvtogithub/utils"
)

func main() {
	// コマンドラインフラグの定義
	csvPath := flag.String("csv", "", "検証するCSVファイルのパス（指定しない場合は環境変数から取得）")
	delimiter := flag.String("delimiter", "", "CSVの区切り文字（デフォルト ,）")
	help := flag.Bool("help", false, "ヘルプを表示する")

	// フラグのパース
	flag.Parse()

	// ヘルプフラグが指定された場合はヘルプを表示
	if *help {
		printHelp()
		return
	}

	utils.LogInfo("CSV検証ツール")

	// 設定の読み込み
	cfg, err := config.LoadConfig("")
	if err != nil {
		utils.LogError("設定の読み込みに失敗しました: %v", err)
		os.Exit(1)
	}

	// コマンドラインで指定された値で設定を上書き
	if *csvPath != "" {
		cfg.CSVPath = *csvPath
	}
	if *delimiter != "" {
		cfg.Delimiter = *delimiter
	}

	// CSVの読み込み
	csvProc := services.NewCSVProcessor(cfg)
	rows, err := csvProc.ReadTasksCSV(cfg.CSVPath)
	if err != nil {
		utils.LogError("CSV読み込みエラー: %v", err)
		os.Exit(1)
	}

	// 各行をAPI呼び出しなしで検証する
	valid := 0
	invalid := 0

	for _, row := range rows {
		if row.Err != nil {
			invalid++
			utils.LogError("行 %d: %v", row.Line, row.Err)
			continue
		}

		task, err := csvProc.MapRecord(row.Record)
		if err != nil {
			invalid++
			utils.LogError("行 %d: %v", row.Line, err)
			continue
		}

		valid++
		utils.LogInfo("行 %d: OK (%s, ラベル=%d, 担当者=%d, 追加フィールド=%d)",
			row.Line, task.Title, len(task.Labels), len(task.Assignees), len(task.Fields))
	}

	utils.LogInfo("検証が完了しました: 有効=%d, 無効=%d", valid, invalid)

	if invalid > 0 {
		os.Exit(1)
	}
}

// ヘルプメッセージを表示する関数
func printHelp() {
	fmt.Printf(`
CSV検証ツール

使用方法:
  %s [オプション]

オプション:
  -csv ファイル        検証するCSVファイル
  -delimiter 文字      CSVの区切り文字（デフォルト ,）
  -help                このヘルプを表示する

環境変数:
  CSV_PATH            CSVファイルパス (デフォルト: tasks.csv)
  CSV_DELIMITER       CSVの区切り文字 (デフォルト: ,)

説明:
  このツールはインポート前にCSVファイルを検証します。
  GitHub APIへのアクセスは一切行いません。

  各行についてTitleカラムの有無と解析の成否を報告します。
  無効な行が1つでもあれば終了コードは0以外になります。
`, os.Args[0])
}
