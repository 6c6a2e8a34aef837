package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize("", ""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("Initialize() without level should produce a silent logger")
	}
}

func TestInitialize_UnknownLevel(t *testing.T) {
	if err := Initialize("verbose", ""); err == nil {
		t.Error("Initialize(\"verbose\") should fail")
	}
}

func TestInitialize_EnvLevel(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")

	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	core := GetLogger().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("warn level should not enable info")
	}
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn level should enable warn")
	}
}

func TestInitialize_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "granitica.log")

	if err := Initialize("info", path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	LogTX(9, "PING from Cardputer (SF9)")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "PING from Cardputer (SF9)") {
		t.Errorf("log file = %q, want TX payload", data)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Error("log file should not contain colour escapes")
	}
}

func TestDomainHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	LogRX(12, -101, -3.5, "hello")
	LogGPSFix(false, 0, 0, 0, 3)
	LogRadioConfig(868, 125, 7, 7, 10)
	LogRawBytes("serial", []byte("+OK\r\n"))

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	rx := entries[0].ContextMap()
	if rx["payload"] != "hello" || rx["sf"] != int64(12) {
		t.Errorf("LogRX fields = %v", rx)
	}
	if _, ok := entries[1].ContextMap()["lat"]; ok {
		t.Error("LogGPSFix without fix should not log a position")
	}
	if got := entries[2].ContextMap()["coding_rate"]; got != "4/7" {
		t.Errorf("coding_rate = %v, want 4/7", got)
	}
	raw := entries[3].ContextMap()
	if raw["ascii"] != "+OK.." || raw["hex"] != "2b4f4b0d0a" {
		t.Errorf("LogRawBytes fields = %v", raw)
	}
}

func TestAsciiDump(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", nil, ""},
		{"printable", []byte("AT+SEND"), "AT+SEND"},
		{"control", []byte{0x00, 'A', 0x7f}, ".A."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := asciiDump(tt.in); got != tt.want {
				t.Errorf("asciiDump() = %q, want %q", got, tt.want)
			}
		})
	}
}
