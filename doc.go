// kintai はジオフェンス付きの日次勤怠打刻サービス。
//
// サブコマンド:
//
//	serve        APIサーバーを起動する（デフォルト）
//	worker       自動サインアウトのスイーパーを起動する
//	migrate      データベースマイグレーションを適用する
//	healthcheck  /health エンドポイントの死活確認を行う
//
// 設定はすべて環境変数から読み込む。詳細は internal/config を参照。
package main
