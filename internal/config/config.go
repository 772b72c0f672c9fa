package config

import (
	"github.com/travisim/Farmify-sub001/internal/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	XRPL     XRPLConfig     `mapstructure:"xrpl"`
	DocStore DocStoreConfig `mapstructure:"docstore"`
	Payout   PayoutConfig   `mapstructure:"payout"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// XRPLConfig configures the ledger gateway.
type XRPLConfig struct {
	RPCURL         string `mapstructure:"rpc_url"`         // JSON-RPC endpoint
	PlatformWallet string `mapstructure:"platform_wallet"` // wallet seed used for payouts and memo txs
	TimeoutSecs    int    `mapstructure:"timeout_secs"`    // per-request timeout
}

// DocStoreConfig configures the content-addressed document store.
type DocStoreConfig struct {
	APIURL      string `mapstructure:"api_url"` // IPFS-compatible add endpoint
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// PayoutConfig holds the distribution percentages. Values are fractions,
// e.g. 0.10 for a 10% platform fee.
type PayoutConfig struct {
	PlatformFeePercentage string `mapstructure:"platform_fee_percentage"`
	FarmerSharePercentage string `mapstructure:"farmer_share_percentage"`
	PlatformPayoutAddress string `mapstructure:"platform_payout_address"`
	MaxConcurrentPayouts  int    `mapstructure:"max_concurrent_payouts"`
}

type TaskConfig struct {
	ReconcileInterval int `mapstructure:"reconcile_interval"` // seconds
	RetryInterval     int `mapstructure:"retry_interval"`     // seconds
	MaxReconcileTries int `mapstructure:"max_reconcile_tries"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/farmify")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "farmify")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("xrpl.rpc_url", "https://s.altnet.rippletest.net:51234")
	viper.SetDefault("xrpl.timeout_secs", 20)
	viper.SetDefault("docstore.api_url", "http://localhost:5001")
	viper.SetDefault("docstore.timeout_secs", 30)
	viper.SetDefault("payout.platform_fee_percentage", "0.10")
	viper.SetDefault("payout.farmer_share_percentage", "0.50")
	viper.SetDefault("payout.max_concurrent_payouts", 4)
	viper.SetDefault("task.reconcile_interval", 30)
	viper.SetDefault("task.retry_interval", 300)
	viper.SetDefault("task.max_reconcile_tries", 20)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("could not read config file, using defaults: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("unable to decode config: %v", err)
	}

	return &config
}
