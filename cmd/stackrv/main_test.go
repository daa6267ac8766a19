package main

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tangzhangming/stackrv/internal/codegen"
)

func TestPreprocessArgs(t *testing.T) {
	tests := []struct {
		args []string
		want []string
		lang string
	}{
		{[]string{"build", "a.srv"}, []string{"build", "a.srv"}, ""},
		{[]string{"--lang", "zh", "dump", "a.srv"}, []string{"dump", "a.srv"}, "zh"},
		{[]string{"check", "-lang=en", "a.srv"}, []string{"check", "a.srv"}, "en"},
		{[]string{"help", "--lang"}, []string{"help", "--lang"}, ""},
	}
	for _, tt := range tests {
		globalLang = ""
		got := preprocessArgs(tt.args)
		if !reflect.DeepEqual(got, tt.want) || globalLang != tt.lang {
			t.Errorf("preprocessArgs(%v) = %v, lang %q", tt.args, got, globalLang)
		}
	}
	globalLang = ""
}

func TestPreprocessNoColor(t *testing.T) {
	globalNoColor = false
	defer func() { globalNoColor = false }()

	got := preprocessArgs([]string{"--no-color", "dump", "-no-opt", "a.srv"})
	if !reflect.DeepEqual(got, []string{"dump", "-no-opt", "a.srv"}) || !globalNoColor {
		t.Errorf("preprocessArgs = %v, noColor %v", got, globalNoColor)
	}
}

func TestFingerprint(t *testing.T) {
	on, off := fingerprint(true), fingerprint(false)
	if on == off {
		t.Errorf("optimize flag not in fingerprint: %q", on)
	}
	for _, part := range []string{"stackrv=" + Version, "codegen=" + codegen.Revision} {
		if !strings.Contains(on, part) {
			t.Errorf("fingerprint %q missing %q", on, part)
		}
	}
}

// syncRecorder 记录 Sync 调用的日志输出
type syncRecorder struct {
	strings.Builder
	synced bool
}

func (r *syncRecorder) Sync() error {
	r.synced = true
	return nil
}

func TestFailSyncsLog(t *testing.T) {
	rec := &syncRecorder{}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), rec, zapcore.DebugLevel)
	s := &session{log: zap.New(core)}

	code := -1
	exit = func(c int) {
		if !rec.synced {
			t.Errorf("exit before log sync")
		}
		code = c
	}
	defer func() { exit = osExit }()

	s.log.Info("about to fail")
	s.fail()
	if code != 1 {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(rec.String(), "about to fail") {
		t.Errorf("log output = %q", rec.String())
	}
}

func TestParseStack(t *testing.T) {
	got, err := parseStack(" 6, 0x10 ,-1")
	if err != nil || !reflect.DeepEqual(got, []int64{6, 16, -1}) {
		t.Errorf("parseStack = %v, %v", got, err)
	}
	if got, err := parseStack(""); err != nil || got != nil {
		t.Errorf("empty stack = %v, %v", got, err)
	}
	if _, err := parseStack("1,two"); err == nil {
		t.Errorf("expected an error")
	}
}
