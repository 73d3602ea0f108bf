package app

// Command はプロセスの起動モード。os.Args[1]で指定する。
type Command string

const (
	CommandServe   Command = "serve"   // APIサーバー（既定）
	CommandWorker  Command = "worker"  // 決済整合ジョブの定期実行
	CommandMigrate Command = "migrate" // マイグレーションの適用

	// CommandHealthcheck はdistrolessイメージのHEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数をCommandに変換する。
// 引数なし、または未知の値の場合はCommandServeとみなす。2つ目以降の引数は無視する。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
