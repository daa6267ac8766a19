// Package config 读取与生成 stackrv.toml 配置
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"

	"github.com/tangzhangming/stackrv/internal/errors"
	"github.com/tangzhangming/stackrv/internal/i18n"
)

// 常量定义
const (
	ConfigFileName = "stackrv.toml" // 配置文件名

	EnvLogLevel = "STACKRV_LOG_LEVEL"
	EnvLang     = "STACKRV_LANG"
	EnvCacheDir = "STACKRV_CACHE_DIR"
)

// Config 工具配置
type Config struct {
	General GeneralConfig `toml:"general"`
	Codegen CodegenConfig `toml:"codegen"`
	Log     LogConfig     `toml:"log"`
	Cache   CacheConfig   `toml:"cache"`
}

// GeneralConfig 通用设置
type GeneralConfig struct {
	// Lang 界面语言（en / zh），为空时按操作系统检测
	Lang string `toml:"lang"`
}

// CodegenConfig 代码生成设置
type CodegenConfig struct {
	// Optimize 是否启用窥孔优化
	Optimize bool `toml:"optimize"`

	// Entry check 命令模拟执行的入口标签
	Entry string `toml:"entry"`
}

// LogConfig 日志设置
type LogConfig struct {
	// Level 日志级别（debug / info / warn / error）
	Level string `toml:"level"`

	// File 日志文件，为空时写到标准错误
	File string `toml:"file"`
}

// CacheConfig 生成结果缓存设置
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		General: GeneralConfig{},
		Codegen: CodegenConfig{Optimize: true, Entry: "main"},
		Log:     LogConfig{Level: "warn"},
		Cache:   CacheConfig{Enabled: true, Dir: ".stackrv-cache"},
	}
}

// Load 从文件加载配置。未出现的键保留默认值，未知的键视为错误
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.C0001, err).At(path, 0, 0, 0)
	}

	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, parseError(path, err)
	}

	if err := cfg.Validate(); err != nil {
		if d, ok := errors.As(err); ok {
			return nil, d.At(path, 0, 0, 0)
		}
		return nil, err
	}
	return cfg, nil
}

// parseError 把 go-toml 的错误转换为带位置的诊断
func parseError(path string, err error) error {
	var decErr *toml.DecodeError
	if stderrors.As(err, &decErr) {
		row, col := decErr.Position()
		return errors.New(errors.C0002, decErr.Error()).At(path, row, col, col+1)
	}
	var strict *toml.StrictMissingError
	if stderrors.As(err, &strict) && len(strict.Errors) > 0 {
		first := strict.Errors[0]
		row, col := first.Position()
		return errors.New(errors.C0002, strings.TrimSpace(strict.String())).At(path, row, col, col+1)
	}
	return errors.New(errors.C0002, err).At(path, 0, 0, 0)
}

// Validate 检查取值
func (c *Config) Validate() error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return errors.New(errors.C0003, c.Log.Level)
	}
	if _, ok := i18n.Parse(c.General.Lang); !ok {
		return errors.New(errors.C0004, c.General.Lang)
	}
	return nil
}

// ApplyEnv 用环境变量覆盖配置
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLang); ok {
		c.General.Lang = v
	}
	if v, ok := os.LookupEnv(EnvCacheDir); ok {
		c.Cache.Dir = v
	}
	return c.Validate()
}

// LogLevel 返回解析后的日志级别
func (c *Config) LogLevel() zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return zapcore.WarnLevel
	}
	return lvl
}

// Save 保存配置到文件
func (c *Config) Save(path string) error {
	content := generateConfigWithComments(c)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateConfigWithComments 生成带注释的配置文件内容
func generateConfigWithComments(c *Config) string {
	var sb strings.Builder

	sb.WriteString("[general]\n")
	sb.WriteString("# 界面语言：en 或 zh，留空时自动检测\n")
	sb.WriteString(fmt.Sprintf("lang = %q\n\n", c.General.Lang))

	sb.WriteString("[codegen]\n")
	sb.WriteString("# 是否启用窥孔优化\n")
	sb.WriteString(fmt.Sprintf("optimize = %t\n", c.Codegen.Optimize))
	sb.WriteString("# check 命令模拟执行的入口标签\n")
	sb.WriteString(fmt.Sprintf("entry = %q\n\n", c.Codegen.Entry))

	sb.WriteString("[log]\n")
	sb.WriteString("# 日志级别：debug、info、warn、error\n")
	sb.WriteString(fmt.Sprintf("level = %q\n", c.Log.Level))
	sb.WriteString("# 日志文件，留空写到标准错误\n")
	sb.WriteString(fmt.Sprintf("file = %q\n\n", c.Log.File))

	sb.WriteString("[cache]\n")
	sb.WriteString(fmt.Sprintf("enabled = %t\n", c.Cache.Enabled))
	sb.WriteString(fmt.Sprintf("dir = %q\n", c.Cache.Dir))

	return sb.String()
}

// FindConfigFile 从指定路径向上查找配置文件，找不到时返回空字符串
func FindConfigFile(startPath string) string {
	info, err := os.Stat(startPath)
	if err != nil {
		return ""
	}

	dir := startPath
	if !info.IsDir() {
		dir = filepath.Dir(startPath)
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Resolve 加载配置：显式路径优先，其次向上查找，都没有时用默认值；最后应用环境变量
func Resolve(explicit, startPath string) (*Config, error) {
	path := explicit
	if path == "" {
		path = FindConfigFile(startPath)
	}

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
