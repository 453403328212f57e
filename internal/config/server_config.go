package config

import (
	"crypto/ecdsa"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type EchoServer struct {
	ListenAddress string
	// BotToken must match the X-Bot-Token header when set.
	BotToken string `json:"-"`
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	PrettyPrintConsole bool
}

type Chain struct {
	// RPCURLs are tried in order.
	RPCURLs []string
	ChainID int64
	// GasPriceGwei overrides the node's gas price when set.
	GasPriceGwei     string
	GasMarginPercent uint64
}

type Wallet struct {
	Mnemonic         string `json:"-"`
	Passphrase       string `json:"-"`
	KeystorePath     string
	KeystorePassword string `json:"-"`
	// SerializeSubmissions holds a per-sender lock around nonce lookup and broadcast.
	SerializeSubmissions bool
}

type Faucet struct {
	PrivateKey    string `json:"-"`
	DefaultAmount string
}

type Flow struct {
	TTL time.Duration
}

type History struct {
	DefaultBlocks uint64
	MaxHits       int
}

type Registry struct {
	Backend string
	Path    string
	DSN     string `json:"-"`
}

type Bot struct {
	// Whitelist holds user ids. Empty allows everyone.
	Whitelist []string
}

type I18n struct {
	DefaultLanguage string
}

type Server struct {
	Echo     EchoServer
	Logger   LoggerServer
	Chain    Chain
	Wallet   Wallet
	Faucet   Faucet
	Flow     Flow
	History  History
	Registry Registry
	Bot      Bot
	I18n     I18n
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_LISTEN_ADDRESS", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_REQUEST_LEVEL", "debug")
	v.SetDefault("LOG_PRETTY_PRINT_CONSOLE", false)
	v.SetDefault("CHAIN_ID", 31337)
	v.SetDefault("GAS_MARGIN_PERCENT", 20)
	v.SetDefault("WALLET_KEYSTORE_PATH", "")
	v.SetDefault("SERIALIZE_SUBMISSIONS", true)
	v.SetDefault("FAUCET_DEFAULT_AMOUNT", "0.1")
	v.SetDefault("FLOW_TTL", "10m")
	v.SetDefault("HISTORY_DEFAULT_BLOCKS", 100)
	v.SetDefault("HISTORY_MAX_HITS", 20)
	v.SetDefault("REGISTRY_BACKEND", "badger")
	v.SetDefault("REGISTRY_PATH", "./data/registry")
	v.SetDefault("I18N_DEFAULT_LANGUAGE", "en")
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined above. An optional .env file in the working
// directory is loaded first and never overrides variables that are already set.
func DefaultServiceConfigFromEnv() Server {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return Server{
		Echo: EchoServer{
			ListenAddress: v.GetString("SERVER_LISTEN_ADDRESS"),
			BotToken:      v.GetString("BOT_TOKEN"),
		},
		Logger: LoggerServer{
			Level:              parseLevel(v.GetString("LOG_LEVEL"), zerolog.InfoLevel),
			RequestLevel:       parseLevel(v.GetString("LOG_REQUEST_LEVEL"), zerolog.DebugLevel),
			PrettyPrintConsole: v.GetBool("LOG_PRETTY_PRINT_CONSOLE"),
		},
		Chain: Chain{
			RPCURLs:          splitList(v.GetString("RPC_URL")),
			ChainID:          v.GetInt64("CHAIN_ID"),
			GasPriceGwei:     strings.TrimSpace(v.GetString("GAS_PRICE_GWEI")),
			GasMarginPercent: v.GetUint64("GAS_MARGIN_PERCENT"),
		},
		Wallet: Wallet{
			Mnemonic:             v.GetString("WALLET_MNEMONIC"),
			Passphrase:           v.GetString("WALLET_PASSPHRASE"),
			KeystorePath:         v.GetString("WALLET_KEYSTORE_PATH"),
			KeystorePassword:     v.GetString("WALLET_KEYSTORE_PASSWORD"),
			SerializeSubmissions: v.GetBool("SERIALIZE_SUBMISSIONS"),
		},
		Faucet: Faucet{
			PrivateKey:    strings.TrimSpace(v.GetString("FAUCET_PRIVATE_KEY")),
			DefaultAmount: strings.TrimSpace(v.GetString("FAUCET_DEFAULT_AMOUNT")),
		},
		Flow: Flow{
			TTL: v.GetDuration("FLOW_TTL"),
		},
		History: History{
			DefaultBlocks: v.GetUint64("HISTORY_DEFAULT_BLOCKS"),
			MaxHits:       v.GetInt("HISTORY_MAX_HITS"),
		},
		Registry: Registry{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString("REGISTRY_BACKEND"))),
			Path:    v.GetString("REGISTRY_PATH"),
			DSN:     v.GetString("PSQL_DSN"),
		},
		Bot: Bot{
			Whitelist: splitList(v.GetString("WHITELIST")),
		},
		I18n: I18n{
			DefaultLanguage: v.GetString("I18N_DEFAULT_LANGUAGE"),
		},
	}
}

// Validate reports missing or malformed required values and warns about risky optional ones.
func (c Server) Validate() error {
	var problems []string

	if len(c.Chain.RPCURLs) == 0 {
		problems = append(problems, "RPC_URL is required")
	}
	if c.Chain.ChainID <= 0 {
		problems = append(problems, "CHAIN_ID must be positive")
	}
	if c.Chain.GasPriceGwei != "" {
		if _, err := c.GasPriceGwei(); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if strings.TrimSpace(c.Wallet.Mnemonic) == "" && c.Wallet.KeystorePath == "" {
		problems = append(problems, "WALLET_MNEMONIC or WALLET_KEYSTORE_PATH is required")
	}
	if _, err := c.FaucetKey(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := c.FaucetDefaultAmount(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := c.Bot.UserIDs(); err != nil {
		problems = append(problems, err.Error())
	}

	switch c.Registry.Backend {
	case "badger":
		if c.Registry.Path == "" {
			problems = append(problems, "REGISTRY_PATH is required for the badger registry")
		}
	case "postgres":
		if c.Registry.DSN == "" {
			problems = append(problems, "PSQL_DSN is required for the postgres registry")
		}
	case "memory":
	default:
		problems = append(problems, "REGISTRY_BACKEND must be one of badger, postgres, memory")
	}

	if len(c.Bot.Whitelist) == 0 {
		log.Warn().Msg("WHITELIST is empty, every chat user is allowed")
	}
	if c.Faucet.PrivateKey == "" {
		log.Warn().Msg("FAUCET_PRIVATE_KEY is not set, /faucet is disabled")
	}
	if c.Registry.Backend == "memory" {
		log.Warn().Msg("Memory registry loses derivation indices on restart")
	}

	if len(problems) > 0 {
		return errors.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// GasPriceGwei returns the configured override, or nil when unset.
func (c Server) GasPriceGwei() (*decimal.Decimal, error) {
	if c.Chain.GasPriceGwei == "" {
		return nil, nil //nolint:nilnil // unset is not an error
	}

	d, err := decimal.NewFromString(c.Chain.GasPriceGwei)
	if err != nil || d.IsNegative() {
		return nil, errors.Errorf("GAS_PRICE_GWEI %q is not a non-negative decimal", c.Chain.GasPriceGwei)
	}
	return &d, nil
}

// FaucetKey parses FAUCET_PRIVATE_KEY. It returns nil when unset.
func (c Server) FaucetKey() (*ecdsa.PrivateKey, error) {
	if c.Faucet.PrivateKey == "" {
		return nil, nil //nolint:nilnil // unset disables the faucet
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.Faucet.PrivateKey, "0x"))
	if err != nil {
		// never echo the key
		return nil, errors.New("FAUCET_PRIVATE_KEY is not a valid secp256k1 private key")
	}
	return key, nil
}

func (c Server) FaucetDefaultAmount() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Faucet.DefaultAmount)
	if err != nil || d.IsNegative() {
		return decimal.Zero, errors.Errorf("FAUCET_DEFAULT_AMOUNT %q is not a non-negative decimal", c.Faucet.DefaultAmount)
	}
	return d, nil
}

// UserIDs parses the whitelist.
func (b Bot) UserIDs() ([]int64, error) {
	ids := make([]int64, 0, len(b.Whitelist))
	for _, entry := range b.Whitelist {
		id, err := strconv.ParseInt(entry, 10, 64)
		if err != nil {
			return nil, errors.Errorf("WHITELIST entry %q is not a user id", entry)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string, fallback zerolog.Level) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return fallback
	}
	return level
}
