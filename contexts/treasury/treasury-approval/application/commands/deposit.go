package commands

import (
	"context"
	"strings"

	application "atomsi/contexts/treasury/treasury-approval/application"
	"atomsi/contexts/treasury/treasury-approval/domain/entities"
	domainerrors "atomsi/contexts/treasury/treasury-approval/domain/errors"
)

type DepositCommand struct {
	Actor  string
	Token  string
	Amount int64
}

// Deposit credits the organization treasury. Only members allowed to create
// treasury records may fund it.
func (uc TreasuryUseCase) Deposit(ctx context.Context, cmd DepositCommand) (entities.Balance, error) {
	logger := application.ResolveLogger(uc.Logger)
	actor := strings.TrimSpace(cmd.Actor)
	token := strings.TrimSpace(cmd.Token)
	if actor == "" || token == "" || cmd.Amount <= 0 {
		return entities.Balance{}, domainerrors.ErrValidation
	}
	if !uc.authorized(ctx, actor, "create") {
		return entities.Balance{}, domainerrors.ErrForbidden
	}

	balance, err := uc.Repository.CreditBalance(ctx, token, uc.treasuryAddress(), cmd.Amount, uc.now())
	if err != nil {
		return entities.Balance{}, err
	}
	logger.Info("treasury funded",
		"event", "treasury_funded",
		"module", "treasury/treasury-approval",
		"layer", "application",
		"actor", actor,
		"token", token,
		"amount", cmd.Amount,
		"balance", balance.Amount,
	)
	return balance, nil
}
