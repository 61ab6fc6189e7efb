package wallet

import (
	"context"

	"scratcher/bot/common"
	"scratcher/models"
	"scratcher/service"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Feature handles /balance, /deposit, /withdraw and /transactions
type Feature struct {
	walletService  service.WalletService
	accountService service.AccountService
}

// New creates a new wallet feature instance
func New(walletService service.WalletService, accountService service.AccountService) *Feature {
	return &Feature{
		walletService:  walletService,
		accountService: accountService,
	}
}

// HandleBalance shows the caller's wallet
func (f *Feature) HandleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		log.WithError(err).Error("Error resolving account for balance")
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	wallet, err := f.walletService.GetBalance(ctx, accountID)
	if err != nil {
		log.WithError(err).Errorf("Error getting wallet %d", accountID)
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildBalanceEmbed(wallet), true)
}

// HandleDeposit requests a deposit that settles asynchronously
func (f *Feature) HandleDeposit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	options := common.OptionMap(i.ApplicationCommandData().Options)

	amount, ok := amountOption(options)
	if !ok {
		common.RespondWithError(s, i, "Please provide an amount.")
		return
	}

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	tx, err := f.walletService.RequestDeposit(ctx, accountID, amount, models.PaymentMethodPIX)
	if err != nil {
		log.WithFields(log.Fields{
			"accountID": accountID,
			"amount":    amount,
			"error":     err,
		}).Warn("Deposit rejected")
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildRequestEmbed(tx), true)
}

// HandleWithdraw requests a withdrawal to a PIX key
func (f *Feature) HandleWithdraw(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	options := common.OptionMap(i.ApplicationCommandData().Options)

	amount, ok := amountOption(options)
	if !ok {
		common.RespondWithError(s, i, "Please provide an amount.")
		return
	}
	keyOpt, ok := options["pix_key"]
	if !ok || keyOpt.StringValue() == "" {
		common.RespondWithError(s, i, "Please provide the PIX key to pay out to.")
		return
	}

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	tx, err := f.walletService.RequestWithdrawal(ctx, accountID, amount, keyOpt.StringValue())
	if err != nil {
		log.WithFields(log.Fields{
			"accountID": accountID,
			"amount":    amount,
			"error":     err,
		}).Warn("Withdrawal rejected")
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildRequestEmbed(tx), true)
}

// HandleTransactions lists journal entries, optionally by kind
func (f *Feature) HandleTransactions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	options := common.OptionMap(i.ApplicationCommandData().Options)

	filter := models.TransactionFilter{Limit: 15}
	if opt, ok := options["kind"]; ok {
		filter.Kind = models.TransactionKind(opt.StringValue())
	}
	if opt, ok := options["page"]; ok && opt.IntValue() > 1 {
		filter.Offset = int(opt.IntValue()-1) * filter.Limit
	}

	accountID, err := common.EnsureAccount(ctx, f.accountService, i)
	if err != nil {
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	txs, err := f.walletService.ListTransactions(ctx, accountID, filter)
	if err != nil {
		log.WithError(err).Errorf("Error listing transactions for %d", accountID)
		common.RespondWithError(s, i, common.ErrorMessage(err))
		return
	}

	common.RespondWithEmbed(s, i, BuildTransactionsEmbed(txs), true)
}

func amountOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption) (decimal.Decimal, bool) {
	opt, ok := options["amount"]
	if !ok {
		return decimal.Zero, false
	}
	return models.Money(decimal.NewFromFloat(opt.FloatValue())), true
}
