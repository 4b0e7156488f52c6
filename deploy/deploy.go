package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/nspcc-dev/ft-contract/common"
	"github.com/nspcc-dev/ft-contract/fungible"
	"github.com/nspcc-dev/ft-contract/host"
	rpcfungible "github.com/nspcc-dev/ft-contract/rpc/fungible"
	"github.com/nspcc-dev/ft-contract/u128"
	"go.uber.org/zap"
)

// Blockchain groups services of the chain required for token deployment.
type Blockchain interface {
	// Actor groups functions needed to compose and send transactions.
	rpcfungible.Actor

	// Account returns state of the account. It returns error wrapping
	// host.ErrUnknownAccount if the account is missing.
	Account(id string) (host.AccountState, error)

	// CreateAccount creates plain account with initial native balance.
	CreateAccount(id string, balance u128.Int) error

	// Deploy creates account holding code.
	Deploy(id string, code host.Contract, balance u128.Int) error

	// Attach binds code to already existing contract account.
	Attach(id string, code host.Contract) error
}

// CommonDeployPrm groups common deployment parameters of the contract.
type CommonDeployPrm struct {
	// Account to deploy the contract to.
	Account string
	// Native balance of the new contract account. It must cover storage of
	// the token state and the owner registration.
	Balance u128.Int
}

// TokenPrm groups deployment parameters of the fungible token contract.
type TokenPrm struct {
	Common CommonDeployPrm

	Owner string
	// Native balance of the owner account if it is created during deployment.
	OwnerBalance u128.Int

	TotalSupply u128.Int
	Metadata    fungible.Metadata
}

// Prm groups all parameters of the deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	Blockchain Blockchain

	Token TokenPrm
}

// Deploy makes token contract described by Prm available on the chain:
// deploys its code (or attaches it to the existing account after restart)
// and initializes the token if it hasn't been done yet.
//
// Deploy is idempotent: it can be called on every node start.
func Deploy(ctx context.Context, prm Prm) error {
	log := prm.Logger.With(zap.String("contract", prm.Token.Common.Account))
	code := fungible.Contract{}

	st, err := prm.Blockchain.Account(prm.Token.Common.Account)
	switch {
	case errors.Is(err, host.ErrUnknownAccount):
		log.Info("deploying token contract...")
		if err := prm.Blockchain.Deploy(prm.Token.Common.Account, code, prm.Token.Common.Balance); err != nil {
			return fmt.Errorf("deploy token contract: %w", err)
		}
	case err != nil:
		return fmt.Errorf("get contract account state: %w", err)
	case !st.HasContract:
		return fmt.Errorf("account %s exists but has no contract", prm.Token.Common.Account)
	default:
		if err := prm.Blockchain.Attach(prm.Token.Common.Account, code); err != nil {
			return fmt.Errorf("attach token contract: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	reader := rpcfungible.NewReader(prm.Blockchain, prm.Token.Common.Account)
	v, err := reader.Version()
	if err == nil {
		log.Info("token contract is already initialized, skip", zap.Int64("version", v))
		if v != common.Version {
			log.Warn("token contract version differs from the local one",
				zap.Int64("on-chain", v), zap.Int64("local", common.Version))
		}
		return nil
	}
	if !errors.Is(err, fungible.ErrNotInitialized) {
		log.Debug("version call failed", zap.Error(err))
	}

	if _, err := prm.Blockchain.Account(prm.Token.Owner); errors.Is(err, host.ErrUnknownAccount) {
		log.Info("creating owner account", zap.String("owner", prm.Token.Owner))
		if err := prm.Blockchain.CreateAccount(prm.Token.Owner, prm.Token.OwnerBalance); err != nil {
			return fmt.Errorf("create owner account: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("get owner account state: %w", err)
	}

	log.Info("initializing token contract...",
		zap.String("owner", prm.Token.Owner),
		zap.Stringer("total supply", prm.Token.TotalSupply))

	c := rpcfungible.New(prm.Blockchain, prm.Token.Common.Account, prm.Token.Owner)
	tx, err := c.InitTransaction(prm.Token.Owner, prm.Token.TotalSupply, prm.Token.Metadata)
	if err != nil {
		return fmt.Errorf("make initialization transaction: %w", err)
	}
	o, err := c.Execute(tx)
	if err != nil {
		return fmt.Errorf("initialize token contract: %w", err)
	}

	log.Info("token contract successfully initialized", zap.String("tx", o.TxID))
	return nil
}
