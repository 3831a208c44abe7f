package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Method names of the mint contract entry points.
// Defaults match the deployed SGB/CGLD collection.
type Methods struct {
	PriceA      string
	PriceB      string
	Claimable   string
	TotalSupply string
	Presale     string
	Mint        string
	PreMint     string
	FreeMint    string
	Claim       string
}

// Settings keeps all configuration options.
// Loaded once at startup and treated as read-only afterwards.
type Settings struct {
	RPCURL          string
	ChainID         int64
	ChainTokenName  string
	ChainLabel      string
	ContractAddress string
	ContractABIPath string
	Methods         Methods

	DiscountNumerator   int64
	DiscountDenominator int64
	PremintBeneficiary  string
	FreemintBeneficiary string

	MintGasLimit    uint64
	MaxMintQuantity int
	PriceDecimals   int
	RewardDecimals  int

	CallTimeout time.Duration
	TxTimeout   time.Duration

	WalletPrivateKeyHex string
	LogLevel            string
	MetricsAddr         string
}

// Load reads settings from environment supporting both UPPER_CASE and lower_case keys.
func Load() Settings {
	get := func(key, def string) string {
		for _, k := range []string{key, strings.ToLower(key)} {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		return def
	}
	getInt := func(key string, def int) int {
		s := get(key, "")
		if s == "" {
			return def
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
		return def
	}
	getInt64 := func(key string, def int64) int64 {
		s := get(key, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		return def
	}
	getUint64 := func(key string, def uint64) uint64 {
		s := get(key, "")
		if s == "" {
			return def
		}
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n
		}
		return def
	}
	getDuration := func(key string, def time.Duration) time.Duration {
		s := get(key, "")
		if s == "" {
			return def
		}
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
		// bare numbers are seconds
		if n, err := strconv.Atoi(s); err == nil {
			return time.Duration(n) * time.Second
		}
		return def
	}

	st := Settings{}
	st.RPCURL = get("RPC_URL", "https://songbird-api.flare.network/ext/C/rpc")
	st.ChainID = getInt64("CHAIN_ID", 19)
	st.ChainTokenName = get("CHAIN_TOKEN_NAME", "SGB")
	st.ChainLabel = get("CHAIN_LABEL", "Songbird")
	st.ContractAddress = get("CONTRACT_ADDRESS", "")
	st.ContractABIPath = get("CONTRACT_ABI_PATH", "")

	st.Methods = Methods{
		PriceA:      get("METHOD_PRICE_A", "MINT_PRICE_SGB"),
		PriceB:      get("METHOD_PRICE_B", "MINT_PRICE_CGLD"),
		Claimable:   get("METHOD_CLAIMABLE", "getClaimableAmountSGB"),
		TotalSupply: get("METHOD_TOTAL_SUPPLY", "totalSupply"),
		Presale:     get("METHOD_PRESALE", "isPresaleLive"),
		Mint:        get("METHOD_MINT", "mintNFTSGB"),
		PreMint:     get("METHOD_PREMINT", "preMintNFT"),
		FreeMint:    get("METHOD_FREEMINT", "freeMintNFT"),
		Claim:       get("METHOD_CLAIM", "claimRewardsSGB"),
	}

	st.DiscountNumerator = getInt64("DISCOUNT_NUMERATOR", 9)
	st.DiscountDenominator = getInt64("DISCOUNT_DENOMINATOR", 10)
	st.PremintBeneficiary = get("PREMINT_BENEFICIARY", "")
	st.FreemintBeneficiary = get("FREEMINT_BENEFICIARY", "")

	st.MintGasLimit = getUint64("MINT_GAS_LIMIT", 8_000_000)
	st.MaxMintQuantity = getInt("MAX_MINT_QUANTITY", 10)
	st.PriceDecimals = getInt("PRICE_DECIMALS", 1)
	st.RewardDecimals = getInt("REWARD_DECIMALS", 4)

	st.CallTimeout = getDuration("CALL_TIMEOUT", 15*time.Second)
	st.TxTimeout = getDuration("TX_TIMEOUT", 3*time.Minute)

	st.WalletPrivateKeyHex = get("WALLET_PRIVATE_KEY", "")
	st.LogLevel = strings.ToLower(get("LOG_LEVEL", "info"))
	st.MetricsAddr = get("METRICS_ADDR", "")

	return st
}

// Validate checks that the settings can drive the mint client.
func (s Settings) Validate() error {
	var errs []error
	if strings.TrimSpace(s.RPCURL) == "" {
		errs = append(errs, errors.New("RPC_URL is required"))
	}
	if s.ChainID <= 0 {
		errs = append(errs, fmt.Errorf("CHAIN_ID must be positive, got %d", s.ChainID))
	}
	if !common.IsHexAddress(s.ContractAddress) {
		errs = append(errs, fmt.Errorf("CONTRACT_ADDRESS is not a hex address: %q", s.ContractAddress))
	}
	if s.DiscountDenominator <= 0 {
		errs = append(errs, fmt.Errorf("DISCOUNT_DENOMINATOR must be positive, got %d", s.DiscountDenominator))
	}
	if s.DiscountNumerator < 0 || s.DiscountNumerator > s.DiscountDenominator {
		errs = append(errs, fmt.Errorf("DISCOUNT_NUMERATOR must be within [0, %d], got %d", s.DiscountDenominator, s.DiscountNumerator))
	}
	for key, v := range map[string]string{
		"PREMINT_BENEFICIARY":  s.PremintBeneficiary,
		"FREEMINT_BENEFICIARY": s.FreemintBeneficiary,
	} {
		if v != "" && !common.IsHexAddress(v) {
			errs = append(errs, fmt.Errorf("%s is not a hex address: %q", key, v))
		}
	}
	if s.MaxMintQuantity < 1 {
		errs = append(errs, fmt.Errorf("MAX_MINT_QUANTITY must be at least 1, got %d", s.MaxMintQuantity))
	}
	if s.MintGasLimit == 0 {
		errs = append(errs, errors.New("MINT_GAS_LIMIT must be positive"))
	}
	if s.PriceDecimals < 0 || s.RewardDecimals < 0 {
		errs = append(errs, errors.New("PRICE_DECIMALS and REWARD_DECIMALS must not be negative"))
	}
	if s.CallTimeout <= 0 || s.TxTimeout <= 0 {
		errs = append(errs, errors.New("CALL_TIMEOUT and TX_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Contract returns the configured contract address.
func (s Settings) Contract() common.Address {
	return common.HexToAddress(s.ContractAddress)
}

// Beneficiary resolves an explicit address or falls back to the configured default.
func Beneficiary(explicit, fallback string) (common.Address, error) {
	v := strings.TrimSpace(explicit)
	if v == "" {
		v = strings.TrimSpace(fallback)
	}
	if v == "" {
		return common.Address{}, errors.New("no beneficiary address given and none configured")
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("beneficiary is not a hex address: %q", v)
	}
	return common.HexToAddress(v), nil
}
