package repository

import (
	"context"
	"fmt"
	"net/http"

	"equity-marketplace/config"
	"equity-marketplace/internal/apperrors"
	"equity-marketplace/pkg/httpclient"
	"equity-marketplace/pkg/logger"

	"github.com/shopspring/decimal"
)

const WalletTypeBuybackFund = "buyback_fund"

// FundLedgerRepository talks to the remote fund-ledger service holding
// cash balances per currency/wallet. Every call reports success or
// failure explicitly; nothing here retries silently.
type FundLedgerRepository interface {
	Debit(ctx context.Context, walletID string, amount decimal.Decimal, currency, reference string) error
	Credit(ctx context.Context, walletID string, amount decimal.Decimal, currency, reference string) error
	GetBalance(ctx context.Context, walletType, currency string) (decimal.Decimal, error)
}

type fundLedgerRepository struct {
	httpClient httpclient.HTTPClient
	cfg        *config.Config
	logger     *logger.Logger
}

func NewFundLedgerRepository(cfg *config.Config, log *logger.Logger) FundLedgerRepository {
	return &fundLedgerRepository{
		httpClient: httpclient.New(cfg.FundLedger.BaseURL, cfg.FundLedger.Timeout, cfg.FundLedger.BearerToken),
		cfg:        cfg,
		logger:     log,
	}
}

type fundTransferRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference"`
}

type fundTransferResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type fundBalanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

func (r *fundLedgerRepository) Debit(ctx context.Context, walletID string, amount decimal.Decimal, currency, reference string) error {
	return r.transfer(ctx, fmt.Sprintf("/v1/wallets/%s/debit", walletID), walletID, amount, currency, reference)
}

func (r *fundLedgerRepository) Credit(ctx context.Context, walletID string, amount decimal.Decimal, currency, reference string) error {
	return r.transfer(ctx, fmt.Sprintf("/v1/wallets/%s/credit", walletID), walletID, amount, currency, reference)
}

func (r *fundLedgerRepository) transfer(ctx context.Context, endpoint, walletID string, amount decimal.Decimal, currency, reference string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidation("transfer amount must be positive, got %s", amount)
	}

	body := fundTransferRequest{Amount: amount, Currency: currency, Reference: reference}
	var result fundTransferResponse
	resp, err := r.httpClient.Post(ctx, endpoint, body, nil, &result)
	if err != nil {
		return fmt.Errorf("fund ledger call failed for wallet %s: %w", walletID, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		return apperrors.NewInsufficientFunds("wallet %s cannot cover %s %s: %s", walletID, amount, currency, result.Message)
	default:
		r.logger.ErrorContext(ctx, "Fund ledger returned non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("wallet_id", walletID),
			logger.StringField("body", string(resp.Body)))
		return fmt.Errorf("fund ledger returned status %d for wallet %s", resp.StatusCode, walletID)
	}
}

func (r *fundLedgerRepository) GetBalance(ctx context.Context, walletType, currency string) (decimal.Decimal, error) {
	queryParams := map[string]string{
		"wallet_type": walletType,
		"currency":    currency,
	}

	var result fundBalanceResponse
	resp, err := r.httpClient.Get(ctx, "/v1/balances", queryParams, nil, &result)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fund ledger balance call failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fund ledger returned status %d for %s balance", resp.StatusCode, walletType)
	}
	return result.Balance, nil
}
