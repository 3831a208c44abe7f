package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ligun0805/nft-mint/internal/config"
	"github.com/ligun0805/nft-mint/internal/display"
	"github.com/ligun0805/nft-mint/internal/logging"
	"github.com/ligun0805/nft-mint/internal/metrics"
	"github.com/ligun0805/nft-mint/internal/mintcore"
	"github.com/ligun0805/nft-mint/internal/mintview"
	"github.com/ligun0805/nft-mint/internal/wallet"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	a := app.New()
	curTheme := makeTheme("dark", false)
	a.Settings().SetTheme(curTheme)
	w := a.NewWindow("NFT Mint")
	w.Resize(fyne.NewSize(760, 640))

	st := config.Load()
	detachConsole(st.LogLevel == "debug")
	if err := st.Validate(); err != nil {
		w.SetContent(widget.NewLabel("Configuration error:\n" + err.Error()))
		w.ShowAndRun()
		os.Exit(1)
	}
	abiJSON := ""
	if p := strings.TrimSpace(st.ContractABIPath); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			w.SetContent(widget.NewLabel("Cannot read ABI: " + err.Error()))
			w.ShowAndRun()
			os.Exit(1)
		}
		abiJSON = string(b)
	}

	base, err := logging.New(st.LogLevel)
	if err != nil {
		base = zap.NewNop()
	}
	logs := newLogPane()
	lvl, _ := zapcore.ParseLevel(st.LogLevel)
	log := logs.tee(base, lvl)
	defer func() { _ = log.Sync() }()

	stopMetrics := metrics.Serve(st.MetricsAddr, func(err error) {
		log.Warn("metrics server stopped", zap.Error(err))
	})
	defer stopMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := wallet.NewKeyedProvider(st.RPCURL, st.WalletPrivateKeyHex, log.Named("wallet"))
	core := mintcore.New(mintcore.OptionsFromSettings(st, abiJSON), log.Named("mint"))
	stopWatch := core.Watch(ctx, provider)
	defer stopWatch()

	ui := newMintView(w, st, core, provider, logs)
	ui.bind(ctx)

	themeSelect := widget.NewSelect([]string{"Dark", "Light"}, func(s string) {
		mode := "dark"
		if s == "Light" {
			mode = "light"
		}
		curTheme = makeTheme(mode, curTheme.(*appTheme).compact)
		a.Settings().SetTheme(curTheme)
	})
	themeSelect.SetSelected("Dark")
	compactCheck := widget.NewCheck("Compact", func(b bool) {
		curTheme = makeTheme(curTheme.(*appTheme).mode, b)
		a.Settings().SetTheme(curTheme)
	})

	w.SetContent(container.NewBorder(
		container.NewHBox(widget.NewLabelWithStyle(st.ChainLabel+" NFT mint", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			layout.NewSpacer(), themeSelect, compactCheck),
		nil, nil, nil,
		ui.content(),
	))
	w.SetOnClosed(func() {
		cancel()
		provider.Disconnect()
	})
	w.ShowAndRun()
}

// mintView owns the widgets of the main window. All widget updates go
// through render, driven by store snapshots.
type mintView struct {
	w        fyne.Window
	st       config.Settings
	core     *mintcore.App
	provider *wallet.KeyedProvider
	logs     *logPane

	banner     *widget.Label
	account    *widget.Label
	rewards    *widget.Label
	supply     *widget.Label
	priceA     *widget.Label
	priceB     *widget.Label
	presale    *widget.Label
	qty        *widget.Slider
	qtyLabel   *widget.Label
	quantity   atomic.Int32 // slider value, read by store subscribers
	connectBtn *widget.Button
	mintBtn    *widget.Button
	preMintID  *widget.Entry
	preMintTo  *widget.Entry
	preMintBtn *widget.Button
	freeMintTo *widget.Entry
	freeBtn    *widget.Button
	claimBtn   *widget.Button
}

func newMintView(w fyne.Window, st config.Settings, core *mintcore.App, provider *wallet.KeyedProvider, logs *logPane) *mintView {
	v := &mintView{w: w, st: st, core: core, provider: provider, logs: logs}
	v.banner = widget.NewLabel("")
	v.banner.Wrapping = fyne.TextWrapWord
	v.account = widget.NewLabel("")
	v.rewards = widget.NewLabel(display.Unknown)
	v.supply = widget.NewLabel(display.Unknown)
	v.priceA = widget.NewLabel(display.Unknown)
	v.priceB = widget.NewLabel(display.Unknown)
	v.presale = widget.NewLabel("")

	v.qty = widget.NewSlider(1, float64(st.MaxMintQuantity))
	v.qty.Step = 1
	v.qty.SetValue(1)
	v.qtyLabel = widget.NewLabel("1")
	v.quantity.Store(1)

	v.preMintID = widget.NewEntry()
	v.preMintID.SetPlaceHolder("token id")
	v.preMintTo = widget.NewEntry()
	v.preMintTo.SetPlaceHolder(orDefault(st.PremintBeneficiary, "beneficiary address"))
	v.freeMintTo = widget.NewEntry()
	v.freeMintTo.SetPlaceHolder(orDefault(st.FreemintBeneficiary, "beneficiary address"))

	v.connectBtn = widget.NewButtonWithIcon("Connect wallet", theme.LoginIcon(), nil)
	v.mintBtn = widget.NewButtonWithIcon("Mint", theme.ConfirmIcon(), nil)
	v.mintBtn.Importance = widget.HighImportance
	v.preMintBtn = widget.NewButton("Premint", nil)
	v.freeBtn = widget.NewButton("Free mint", nil)
	v.claimBtn = widget.NewButtonWithIcon("Claim rewards", theme.DownloadIcon(), nil)
	return v
}

func orDefault(s, d string) string {
	if strings.TrimSpace(s) == "" {
		return d
	}
	return s
}

func (v *mintView) content() fyne.CanvasObject {
	stats := widget.NewCard("Collection", "", widget.NewForm(
		widget.NewFormItem("Account", v.account),
		widget.NewFormItem("Claimable rewards", v.rewards),
		widget.NewFormItem("Total minted", v.supply),
		widget.NewFormItem("Price", v.priceA),
		widget.NewFormItem("Price (CGLD)", v.priceB),
		widget.NewFormItem("", v.presale),
	))
	mint := widget.NewCard("Mint", "", container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel("Quantity"), v.qtyLabel, v.qty),
		v.mintBtn,
		v.claimBtn,
	))
	owner := widget.NewCard("Owner", "", container.NewVBox(
		container.NewGridWithColumns(3, v.preMintID, v.preMintTo, v.preMintBtn),
		container.NewBorder(nil, nil, nil, v.freeBtn, v.freeMintTo),
	))
	top := container.NewVBox(container.NewBorder(nil, nil, nil, v.connectBtn, v.banner), stats, mint, owner)
	return container.NewVSplit(container.NewVScroll(top), v.logs.content())
}

func (v *mintView) bind(ctx context.Context) {
	v.qty.OnChanged = func(f float64) {
		v.quantity.Store(int32(f))
		v.qtyLabel.SetText(fmt.Sprintf("%d", int(f)))
		v.render(v.core.Store().Snapshot())
	}
	v.connectBtn.OnTapped = func() { v.toggleConnect(ctx) }
	v.mintBtn.OnTapped = func() {
		q := int(v.quantity.Load())
		v.run(ctx, func(ctx context.Context) (*mintcore.Receipt, error) { return v.core.PublicMint(ctx, q) })
	}
	v.preMintBtn.OnTapped = func() {
		id, ok := new(big.Int).SetString(strings.TrimSpace(v.preMintID.Text), 10)
		if !ok {
			dialog.ShowError(errors.New("token id must be a decimal number"), v.w)
			return
		}
		to := v.preMintTo.Text
		v.run(ctx, func(ctx context.Context) (*mintcore.Receipt, error) { return v.core.PreMint(ctx, id, to) })
	}
	v.freeBtn.OnTapped = func() {
		to := v.freeMintTo.Text
		v.run(ctx, func(ctx context.Context) (*mintcore.Receipt, error) { return v.core.FreeMint(ctx, to) })
	}
	v.claimBtn.OnTapped = func() {
		v.run(ctx, func(ctx context.Context) (*mintcore.Receipt, error) { return v.core.ClaimRewards(ctx) })
	}
	v.core.Store().Subscribe(v.render)
}

func (v *mintView) toggleConnect(ctx context.Context) {
	if v.provider.Status().Wallet != nil {
		v.provider.Disconnect()
		return
	}
	connect := func() {
		go func() {
			if err := v.provider.Connect(ctx); err != nil {
				dialog.ShowError(err, v.w)
			}
		}()
	}
	if strings.TrimSpace(v.st.WalletPrivateKeyHex) != "" {
		connect()
		return
	}
	key := widget.NewPasswordEntry()
	dialog.ShowForm("Wallet private key", "Connect", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Key", key)},
		func(ok bool) {
			if !ok {
				return
			}
			if err := v.provider.SwitchAccount(ctx, key.Text); err != nil {
				dialog.ShowError(err, v.w)
				return
			}
			connect()
		}, v.w)
}

// run submits in the background; the store's pending flags disable the button.
func (v *mintView) run(ctx context.Context, fn func(context.Context) (*mintcore.Receipt, error)) {
	go func() {
		if _, err := fn(ctx); err != nil {
			dialog.ShowError(err, v.w)
		}
	}()
}

func (v *mintView) render(s mintcore.State) {
	vm := mintview.Build(s, int(v.quantity.Load()), mintview.Estimate(v.core.Options().Policy, s, v.st.RewardDecimals))

	v.banner.SetText(vm.Banner)
	v.account.SetText(vm.Account)
	v.rewards.SetText(vm.Rewards)
	v.supply.SetText(vm.Supply)
	v.priceA.SetText(vm.PriceA)
	v.priceB.SetText(vm.PriceB)
	v.presale.SetText(vm.Presale)
	v.mintBtn.SetText(vm.MintLabel)
	v.connectBtn.SetText(vm.ConnectText)

	setEnabled(v.connectBtn, vm.ConnectEnabled)
	setEnabled(v.mintBtn, vm.MintEnabled)
	setEnabled(v.preMintBtn, vm.PreMintEnabled)
	setEnabled(v.freeBtn, vm.FreeMintEnabled)
	setEnabled(v.claimBtn, vm.ClaimEnabled)
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}
