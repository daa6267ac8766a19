// Package i18n 提供命令行与诊断信息的中英文消息表
package i18n

import (
	"fmt"
	"strings"
	"sync"
)

// Language 语言类型
type Language string

const (
	LangEnglish Language = "en"
	LangChinese Language = "zh"
)

// 全局语言设置
var (
	currentLang Language = LangEnglish
	mu          sync.RWMutex
)

// SetLanguage 设置当前语言
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	currentLang = lang
}

// Parse 解析语言名称，无法识别时返回 false
func Parse(lang string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "en", "en-us", "en-gb", "english":
		return LangEnglish, true
	case "zh", "zh-cn", "zh-tw", "zh-hk", "chinese":
		return LangChinese, true
	}
	return LangEnglish, false
}

// SetLanguageFromString 从字符串设置语言，无法识别时回退到英文
func SetLanguageFromString(lang string) {
	l, _ := Parse(lang)
	SetLanguage(l)
}

// GetLanguage 获取当前语言
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return currentLang
}

// T 翻译消息（支持格式化参数）
func T(msgID string, args ...interface{}) string {
	mu.RLock()
	lang := currentLang
	mu.RUnlock()

	messages := messagesEN
	if lang == LangChinese {
		messages = messagesZH
	}

	msg, ok := messages[msgID]
	if !ok {
		// 回退到英文
		if msg, ok = messagesEN[msgID]; !ok {
			return msgID
		}
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
