package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ligun0805/nft-mint/internal/config"
	"github.com/ligun0805/nft-mint/internal/display"
	"github.com/ligun0805/nft-mint/internal/logging"
	"github.com/ligun0805/nft-mint/internal/metrics"
	"github.com/ligun0805/nft-mint/internal/mintcore"
	"github.com/ligun0805/nft-mint/internal/wallet"
)

type cliEnv struct {
	st       config.Settings
	log      *zap.Logger
	provider *wallet.KeyedProvider
	app      *mintcore.App
	stop     func()
}

func (rt *cliEnv) close() {
	rt.provider.Disconnect()
	rt.stop()
	_ = rt.log.Sync()
}

var (
	assumeYes  bool
	promptKey  bool
	showConfig bool
)

// connect loads settings, opens the wallet and reads the contract state.
func connect(cmd *cobra.Command) (*cliEnv, error) {
	st := config.Load()
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(st.LogLevel)
	if err != nil {
		return nil, err
	}
	abiJSON, err := loadABI(st.ContractABIPath)
	if err != nil {
		return nil, err
	}

	keyHex := st.WalletPrivateKeyHex
	if keyHex == "" || promptKey {
		if !stdinIsTerminal() {
			return nil, fmt.Errorf("WALLET_PRIVATE_KEY is empty and stdin is not a terminal")
		}
		if keyHex, err = readPassword(cmd.ErrOrStderr(), "Private key: "); err != nil {
			return nil, err
		}
	}
	if showConfig {
		printConfig(cmd.OutOrStdout(), st)
	}

	stop := metrics.Serve(st.MetricsAddr, func(err error) {
		log.Warn("metrics server stopped", zap.Error(err))
	})
	provider := wallet.NewKeyedProvider(st.RPCURL, keyHex, log.Named("wallet"))
	app := mintcore.New(mintcore.OptionsFromSettings(st, abiJSON), log.Named("mint"))
	rt := &cliEnv{st: st, log: log, provider: provider, app: app, stop: stop}

	ctx := cmd.Context()
	if err := provider.Connect(ctx); err != nil {
		rt.close()
		return nil, err
	}
	if err := app.Connect(ctx, provider.Status().Wallet); err != nil {
		printStatus(cmd.ErrOrStderr(), app.Store().Snapshot())
		rt.close()
		return nil, err
	}
	return rt, nil
}

func loadABI(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read abi: %w", err)
	}
	return string(b), nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mintcli",
		Short:         "Read mint contract state and send mint or claim transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "send without asking for confirmation")
	root.PersistentFlags().BoolVar(&promptKey, "prompt-key", false, "ask for the private key even if WALLET_PRIVATE_KEY is set")
	root.PersistentFlags().BoolVar(&showConfig, "show-config", false, "print the loaded configuration")

	root.AddCommand(statusCmd(), mintCmd(), premintCmd(), freemintCmd(), claimCmd())
	return root
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show rewards, supply, prices and presale flag",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := connect(cmd)
			if err != nil {
				return err
			}
			defer rt.close()
			printStatus(cmd.OutOrStdout(), rt.app.Store().Snapshot())
			return nil
		},
	}
}

func mintCmd() *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Public mint paying the current (presale-discounted) price",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := connect(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			total, presale, err := rt.app.Quote(cmd.Context(), qty)
			if err != nil {
				return err
			}
			note := ""
			if presale {
				note = " (presale price)"
			}
			q := fmt.Sprintf("Mint %d for %s %s%s?", qty, display.Format(total, 4), rt.st.ChainTokenName, note)
			if !confirm(assumeYes, cmd.OutOrStdout(), q) {
				return nil
			}
			rcpt, err := rt.app.PublicMintQuoted(cmd.Context(), qty, total)
			if err != nil {
				return err
			}
			printReceipt(cmd.OutOrStdout(), rcpt, rt.app.Store().Snapshot())
			return nil
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "n", 1, "number of tokens to mint")
	return cmd
}

func premintCmd() *cobra.Command {
	var (
		id string
		to string
	)
	cmd := &cobra.Command{
		Use:   "premint",
		Short: "Owner premint of a token id (no payment)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokenID, ok := new(big.Int).SetString(strings.TrimSpace(id), 10)
			if !ok {
				return fmt.Errorf("--id must be a decimal token id, got %q", id)
			}
			rt, err := connect(cmd)
			if err != nil {
				return err
			}
			defer rt.close()
			if !confirm(assumeYes, cmd.OutOrStdout(), fmt.Sprintf("Premint token %s?", tokenID)) {
				return nil
			}
			rcpt, err := rt.app.PreMint(cmd.Context(), tokenID, to)
			if err != nil {
				return err
			}
			printReceipt(cmd.OutOrStdout(), rcpt, rt.app.Store().Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "token id to premint")
	cmd.Flags().StringVar(&to, "to", "", "beneficiary (default PREMINT_BENEFICIARY)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func freemintCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "freemint",
		Short: "Free mint to a beneficiary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := connect(cmd)
			if err != nil {
				return err
			}
			defer rt.close()
			if !confirm(assumeYes, cmd.OutOrStdout(), "Send free mint?") {
				return nil
			}
			rcpt, err := rt.app.FreeMint(cmd.Context(), to)
			if err != nil {
				return err
			}
			printReceipt(cmd.OutOrStdout(), rcpt, rt.app.Store().Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "beneficiary (default FREEMINT_BENEFICIARY)")
	return cmd
}

func claimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim",
		Short: "Claim accrued rewards for the wallet account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := connect(cmd)
			if err != nil {
				return err
			}
			defer rt.close()
			st := rt.app.Store().Snapshot()
			if !confirm(assumeYes, cmd.OutOrStdout(), fmt.Sprintf("Claim %s %s?", st.Rewards, st.TokenName)) {
				return nil
			}
			rcpt, err := rt.app.ClaimRewards(cmd.Context())
			if err != nil {
				return err
			}
			printReceipt(cmd.OutOrStdout(), rcpt, rt.app.Store().Snapshot())
			return nil
		},
	}
}

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}
