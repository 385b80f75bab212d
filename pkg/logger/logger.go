package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log 全局 logger，Init 之前是 Nop，测试中保持静默
var Log = zap.NewNop()

// Init 按运行环境构建全局 logger。
// production 输出 JSON + ISO8601 时间，其他环境输出带颜色的控制台格式。
func Init(env string) {
	l, err := newConfig(env).Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	Set(l)
}

func newConfig(env string) zap.Config {
	if env == "production" {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "test" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	return cfg
}

// Set 替换全局 logger (测试里可以注入 zaptest / observer)
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	Log = l
	zap.ReplaceGlobals(Log)
}

// Named 子系统 logger。包级函数带 CallerSkip(1)，这里抵消掉
func Named(name string) *zap.Logger {
	return Log.WithOptions(zap.AddCallerSkip(-1)).Named(name)
}

func Sync() {
	_ = Log.Sync()
}

func Info(msg string, fields ...zap.Field)  { Log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Log.Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { Log.Fatal(msg, fields...) }
