package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tangzhangming/stackrv/internal/cache"
	"github.com/tangzhangming/stackrv/internal/config"
)

// cmdConfig 配置文件相关命令
func cmdConfig(args []string) {
	m := Msg()
	if len(args) < 1 || args[0] != "init" {
		if len(args) > 0 {
			fmt.Fprintf(os.Stderr, m.ErrUnknownSubCmd+"\n", args[0])
		}
		fmt.Println(m.HelpUsage + " stackrv config init [-force]")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("config init", flag.ExitOnError)
	force := fs.Bool("force", false, m.OptForce)
	if err := fs.Parse(args[1:]); err != nil {
		os.Exit(1)
	}

	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, m.ErrCreateConfig+"\n", err)
		os.Exit(1)
	}
	path := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(os.Stderr, m.ErrConfigExists+"\n", config.ConfigFileName)
		os.Exit(1)
	}

	if err := config.Default().Save(path); err != nil {
		fmt.Fprintf(os.Stderr, m.ErrCreateConfig+"\n", err)
		os.Exit(1)
	}
	fmt.Printf(m.ConfigCreated+"\n", config.ConfigFileName)
}

// cmdCache 查看或清空缓存；clear 带文件参数时只清除这些文件的条目
func cmdCache(args []string) {
	m := Msg()
	fs := flag.NewFlagSet("cache", flag.ExitOnError)
	configPath := fs.String("config", "", m.OptConfig)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	sub := "stats"
	if fs.NArg() > 0 {
		sub = fs.Arg(0)
	}
	if sub != "stats" && sub != "clear" {
		fmt.Fprintf(os.Stderr, m.ErrUnknownSubCmd+"\n", sub)
		os.Exit(1)
	}

	s := setup(*configPath, ".")
	defer s.log.Sync()
	m = Msg()

	mgr := s.openCache(".")
	if mgr == nil {
		s.fail()
		return
	}

	if sub == "clear" && fs.NArg() > 1 {
		for _, file := range fs.Args()[1:] {
			found, err := mgr.Invalidate(absPath(file))
			if err != nil {
				fmt.Fprintf(os.Stderr, m.ErrCache+"\n", err)
				s.fail()
				return
			}
			if found {
				fmt.Printf(m.CacheInvalidated+"\n", file)
			} else {
				fmt.Printf(m.CacheNotCached+"\n", file)
			}
		}
		return
	}
	if sub == "clear" {
		if err := mgr.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, m.ErrCache+"\n", err)
			s.fail()
			return
		}
		fmt.Println(m.CacheCleared)
		return
	}

	st := mgr.Stats()
	fmt.Printf("  %s: %s\n", m.StatDir, st.Dir)
	fmt.Printf("  %s: %d\n", m.StatEntries, st.Entries)
	fmt.Printf("  %s: %d\n", m.StatSize, st.TotalSize)
}

// openCache 打开缓存目录；相对路径相对于 near 所在目录。失败时返回 nil
func (s *session) openCache(near string) *cache.Manager {
	dir := s.cfg.Cache.Dir
	if !filepath.IsAbs(dir) {
		base := near
		if info, err := os.Stat(near); err != nil || !info.IsDir() {
			base = filepath.Dir(near)
		}
		dir = filepath.Join(base, dir)
	}
	mgr, err := cache.Open(dir)
	if err != nil {
		s.log.Warn("cache disabled", zap.String("dir", dir), zap.Error(err))
		fmt.Fprintf(os.Stderr, Msg().ErrCache+"\n", err)
		return nil
	}
	return mgr
}
