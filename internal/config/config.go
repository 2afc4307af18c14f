package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Data      DataConfig      `toml:"data"`
	Alignment AlignmentConfig `toml:"alignment"`
	Export    ExportConfig    `toml:"export"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port" env:"LABELALIGN_PORT"`
	DevMode bool `toml:"dev_mode" env:"LABELALIGN_DEV_MODE"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir" env:"LABELALIGN_DATA_DIR"`
}

// AlignmentConfig 对齐相关配置
type AlignmentConfig struct {
	// 未指定语言时使用的标签列（en / de）
	DefaultLanguage string `toml:"default_language" env:"LABELALIGN_DEFAULT_LANG"`
	// 单个结果集允许的最大变量数，0 表示不限制
	MaxVariables int `toml:"max_variables" env:"LABELALIGN_MAX_VARIABLES"`
}

// ExportConfig Excel 导出相关配置
type ExportConfig struct {
	SheetName   string `toml:"sheet_name" env:"LABELALIGN_EXPORT_SHEET"`
	Language    string `toml:"language" env:"LABELALIGN_EXPORT_LANG"`
	DownloadTTL string `toml:"download_ttl" env:"LABELALIGN_EXPORT_TTL"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `toml:"level" env:"LABELALIGN_LOG_LEVEL"`
	Development bool   `toml:"development" env:"LABELALIGN_LOG_DEV"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Alignment: AlignmentConfig{
			DefaultLanguage: "en",
			MaxVariables:    500,
		},
		Export: ExportConfig{
			SheetName:   "Labels",
			Language:    "en",
			DownloadTTL: "10m",
		},
		Log: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

// DownloadTTLDuration 导出文件下载有效期，配置非法时回退到 10 分钟
func (c ExportConfig) DownloadTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.DownloadTTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 默认配置文件路径：可执行文件同目录下的 config.toml
// 环境变量 LABELALIGN_CONFIG 可覆盖
func DefaultConfigPath() string {
	if v := os.Getenv("LABELALIGN_CONFIG"); v != "" {
		return v
	}
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadConfigWithInfo 从 config.toml 加载配置并返回元信息
// path 为空时使用 DefaultConfigPath；加载顺序：默认值 -> 配置文件 -> 环境变量
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	// 环境变量覆盖
	if err := env.Parse(config); err != nil {
		return nil, info, fmt.Errorf("parse env: %w", err)
	}
	if os.Getenv("LABELALIGN_PORT") != "" {
		info.PortSpecified = true
	}

	return config, info, nil
}

// LoadConfig 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// SaveConfig 保存配置到指定路径（为空时写到默认位置）
func SaveConfig(config *AppConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ResolveDataDir 数据目录的绝对位置
// 相对路径以可执行文件所在目录为基准
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath 获取数据文件路径
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}
