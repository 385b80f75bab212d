package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// MinProductionKDFIterations 生产环境允许的最小 PBKDF2 迭代次数
const MinProductionKDFIterations = 100_000

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Wallet WalletConfig `mapstructure:"wallet"`
	RPC    RPCConfig    `mapstructure:"rpc"`
	Store  StoreConfig  `mapstructure:"store"`
}

type AppConfig struct {
	Env      string `mapstructure:"env" validate:"oneof=development production test"`
	HttpPort string `mapstructure:"http_port" validate:"required,numeric"`
}

type WalletConfig struct {
	// KDFIterations 必须显式配置，核心逻辑不会根据构建类型自动降低
	KDFIterations    int    `mapstructure:"kdf_iterations" validate:"min=1"`
	DerivationPath   string `mapstructure:"derivation_path" validate:"required,startswith=m/"`
	SecurityLevel    string `mapstructure:"security_level" validate:"oneof=standard biometric biometric_only"`
	ChainID          int64  `mapstructure:"chain_id" validate:"min=1"`
	MnemonicStrength int    `mapstructure:"mnemonic_strength" validate:"oneof=128 160 192 224 256"`
}

type RPCConfig struct {
	URL     string        `mapstructure:"url" validate:"omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	Backend  string         `mapstructure:"backend" validate:"oneof=file memory redis postgres"`
	Path     string         `mapstructure:"path" validate:"required_if=Backend file"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

var Global Config

// Init 加载全局配置，失败直接退出 (与服务端启动流程一致)
func Init() {
	cfg, err := Load("")
	if err != nil {
		log.Fatalf("Fatal error config file: %s \n", err)
	}
	Global = *cfg
	log.Printf("Configuration loaded successfully. Env: %s", Global.App.Env)
}

// Load 读取配置文件 (path 为空时在 . 和 ./config 中查找 config.yaml)，
// 叠加环境变量 (WALLET_KDF_ITERATIONS 形式) 并校验。
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // name of config file (without extension)
		v.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// 环境变量设置
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		log.Printf("Warning: Config file not found, using defaults and environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验字段格式以及跨字段约束
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if c.App.Env == "production" && c.Wallet.KDFIterations < MinProductionKDFIterations {
		return fmt.Errorf("配置校验失败: production 环境 wallet.kdf_iterations 至少为 %d, 当前 %d",
			MinProductionKDFIterations, c.Wallet.KDFIterations)
	}
	return nil
}

// WeakKDF 非生产环境允许较低的迭代次数，但调用方应当打印警告
func (c *Config) WeakKDF() bool {
	return c.Wallet.KDFIterations < MinProductionKDFIterations
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http_port", "8080")

	v.SetDefault("wallet.kdf_iterations", 600_000)
	v.SetDefault("wallet.derivation_path", "m/44'/60'/0'/0/0")
	v.SetDefault("wallet.security_level", "standard")
	v.SetDefault("wallet.chain_id", 1)
	v.SetDefault("wallet.mnemonic_strength", 256)

	v.SetDefault("rpc.url", "")
	v.SetDefault("rpc.timeout", 10*time.Second)

	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", "./wallet-store")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.key_prefix", "wallet-signer:")
}
