package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ddionrails/ddionrails-sub000/internal/config"
	"github.com/ddionrails/ddionrails-sub000/internal/logging"
)

// 通过 -ldflags "-X main.version=..." 注入
var version = "dev"

// app 子命令共享的状态
type app struct {
	configPath string
	verbose    bool

	cfg    *config.AppConfig
	info   config.LoadConfigInfo
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "labelalign",
		Short: "Align categorical value labels across survey variables",
		Long: `labelalign merges the value labels of several survey variables into one
canonical category list and reports each variable's frequencies against it.

Missing-value categories (value <= 0) are dropped, "[code] " prefixes are
stripped, and labels are matched by their normalised English text.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config.toml 路径 (默认: 可执行文件同目录，或 LABELALIGN_CONFIG)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "输出 debug 日志")

	root.AddCommand(newServeCmd(a), newAlignCmd(a), newExportCmd(a))
	return root
}

// init 加载配置并创建日志
func (a *app) init() error {
	cfg, info, err := config.LoadConfigWithInfo(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.info = info
	a.logger = logger
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
