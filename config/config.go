package config

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	Port               = "server.port"
	ShutdownTimeout    = "server.shutdown_timeout"
	Secret             = "server.secret"
	JWTOfflineInterval = "server.jwt_offline_interval"

	PlatformName          = "platform.name"
	PlatformSymbol        = "platform.symbol"
	PlatformFeePercentage = "platform.fee_percentage"
	PlatformRecipient     = "platform.recipient"
	PlatformAdmins        = "platform.admins"
	MarketplacePrincipal  = "platform.marketplace_principal"

	LedgerStore           = "ledger.store"
	AmountFactor          = "ledger.amount_factor"
	MaxTicketsPerPurchase = "ledger.max_tickets_per_purchase"

	DBURL = "database.mysql"

	AuthMode                      = "auth.mode"
	FirebaseProjectID             = "firebase.project_id"
	FirebaseServiceAccountKeyPath = "firebase.service_account_key_path"

	RedisAddress  = "redis.address"
	RedisPassword = "redis.password"
	RedisDB       = "redis.db"
	RedisPrefix   = "redis.prefix"

	KafkaBrokers = "kafka.brokers"
	KafkaTopic   = "kafka.topic"

	AlgorandEnabled = "algorand.enabled"
	ApiAddress      = "algorand.api_address"
	ApiKey          = "algorand.api_key"
	MinFee          = "algorand.min_fee"
	ValidateAddress = "algorand.validate_addresses"

	VaultAddress   = "vault.address"
	VaultToken     = "vault.token"
	VaultUnSealKey = "vault.unseal_key"
	TreasuryPath   = "vault.treasury_path"

	RelayInterval  = "relay.interval"
	RelayBatchSize = "relay.batch_size"

	LogLevel  = "log.level"
	LogFormat = "log.format"
)

// Store kinds accepted by LedgerStore.
const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
)

// Identity modes accepted by AuthMode.
const (
	AuthHeader   = "header"
	AuthFirebase = "firebase"
	AuthOffline  = "offline"
)

func init() {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(Port, ":9000")
	viper.SetDefault(ShutdownTimeout, "10s")
	viper.SetDefault(JWTOfflineInterval, 120)

	viper.SetDefault(PlatformName, "Ticket")
	viper.SetDefault(PlatformSymbol, "TK")
	viper.SetDefault(PlatformFeePercentage, 1)
	viper.SetDefault(MarketplacePrincipal, "marketplace")

	viper.SetDefault(LedgerStore, StoreMemory)
	viper.SetDefault(AmountFactor, 1000000)
	viper.SetDefault(MaxTicketsPerPurchase, 100)

	viper.SetDefault(AuthMode, AuthHeader)

	viper.SetDefault(RedisPrefix, "marketplace")
	viper.SetDefault(KafkaTopic, "ticket-notifications")

	viper.SetDefault(AlgorandEnabled, false)
	viper.SetDefault(MinFee, 1000)
	viper.SetDefault(ValidateAddress, false)
	viper.SetDefault(TreasuryPath, "secret/treasury")

	viper.SetDefault(RelayInterval, "2s")
	viper.SetDefault(RelayBatchSize, 100)

	viper.SetDefault(LogLevel, "info")
	viper.SetDefault(LogFormat, "text")
}
