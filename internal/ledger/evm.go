// internal/ledger/evm.go
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/imi-royalty/internal/config"
	"github.com/javajoker/imi-royalty/internal/models"
)

// registryABI is the royalty-relevant surface of the IP registry contract.
// getAsset returns a positional tuple; unpacking here is the single typed
// decoding step, so nothing downstream ever branches on wire shape.
const registryABI = `[
  {"name":"getAsset","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"owner","type":"address"},{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"category","type":"string"},{"name":"licenseMode","type":"uint8"},{"name":"basePrice","type":"uint256"},{"name":"rentPrice","type":"uint256"},{"name":"royaltyRate","type":"uint8"},{"name":"parentId","type":"uint256"}]},
  {"name":"assetsOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256[]"}]},
  {"name":"royaltyBalance","type":"function","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"pending","type":"uint256"},{"name":"claimed","type":"uint256"}]},
  {"name":"claimRoyalty","type":"function","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]}
]`

// EVMGateway binds the registry contract over an Ethereum JSON-RPC endpoint.
type EVMGateway struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	signer   *bind.TransactOpts
	account  common.Address
	decimals int
	timeout  time.Duration
	log      *logrus.Entry
}

func NewEVMGateway(cfg config.LedgerConfig) (*EVMGateway, error) {
	endpoint := strings.TrimSpace(cfg.RPCURL)
	if endpoint == "" {
		return nil, fmt.Errorf("ledger RPC URL is required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid registry contract address %q", cfg.ContractAddress)
	}

	client, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ledger RPC: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}

	key, err := gethcrypto.HexToECDSA(strings.TrimPrefix(cfg.SignerKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid ledger signer key: %w", err)
	}
	signer, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(cfg.ChainID))
	if err != nil {
		return nil, fmt.Errorf("failed to build transactor: %w", err)
	}

	address := common.HexToAddress(cfg.ContractAddress)
	return &EVMGateway{
		client:   client,
		contract: bind.NewBoundContract(address, parsed, client, client, client),
		signer:   signer,
		account:  gethcrypto.PubkeyToAddress(key.PublicKey),
		decimals: cfg.TokenDecimals,
		timeout:  time.Duration(cfg.CallTimeoutSeconds) * time.Second,
		log:      logrus.WithField("component", "evm_gateway"),
	}, nil
}

// Account returns the signing account address for this session.
func (g *EVMGateway) Account() string {
	return g.account.Hex()
}

func (g *EVMGateway) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *EVMGateway) GetAsset(ctx context.Context, id uint64) (*models.Asset, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	var out []interface{}
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAsset", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, mapCallError(err)
	}
	asset, err := decodeAsset(id, out, g.decimals)
	if err != nil {
		return nil, err
	}
	if asset.Owner == (common.Address{}).Hex() {
		return nil, fmt.Errorf("asset %d: %w", id, ErrNotFound)
	}
	return asset, nil
}

func (g *EVMGateway) GetOwnedAssetIDs(ctx context.Context, account string) ([]uint64, error) {
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("invalid account address %q", account)
	}
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	var out []interface{}
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "assetsOf", common.HexToAddress(account))
	if err != nil {
		return nil, mapCallError(err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("assetsOf: unexpected output arity %d", len(out))
	}
	raw, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("assetsOf: unexpected output type %T", out[0])
	}
	ids := make([]uint64, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, v.Uint64())
	}
	return ids, nil
}

func (g *EVMGateway) GetRoyaltyBalance(ctx context.Context, id uint64) (*Balance, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	var out []interface{}
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, "royaltyBalance", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, mapCallError(err)
	}
	if len(out) != 2 {
		return nil, fmt.Errorf("royaltyBalance: unexpected output arity %d", len(out))
	}
	pending, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("royaltyBalance: unexpected pending type %T", out[0])
	}
	claimed, ok := out[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("royaltyBalance: unexpected claimed type %T", out[1])
	}
	return &Balance{
		Pending: models.AmountFromUnits(pending, g.decimals),
		Claimed: models.AmountFromUnits(claimed, g.decimals),
	}, nil
}

func (g *EVMGateway) ClaimRoyalty(ctx context.Context, id uint64) (*Receipt, error) {
	before, err := g.GetRoyaltyBalance(ctx, id)
	if err != nil {
		return nil, err
	}

	opts := *g.signer
	opts.Context = ctx
	tx, err := g.contract.Transact(&opts, "claimRoyalty", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, mapCallError(err)
	}

	g.log.WithFields(logrus.Fields{
		"asset_id": id,
		"tx_hash":  tx.Hash().Hex(),
	}).Info("Claim transaction submitted")

	mined, err := bind.WaitMined(ctx, g.client, tx)
	if err != nil {
		return nil, fmt.Errorf("waiting for claim tx %s: %w", tx.Hash().Hex(), err)
	}
	if mined.Status == 0 {
		return nil, fmt.Errorf("claim tx %s reverted: %w", tx.Hash().Hex(), ErrRejected)
	}

	// The pre-claim pending is only an estimate: a deposit can land between
	// the read and the mined transaction. The settled amount is read back
	// from the ledger instead.
	amount := before.Pending
	if after, err := g.GetRoyaltyBalance(ctx, id); err == nil {
		amount = settledAmount(before, after)
	} else {
		g.log.WithError(err).WithField("asset_id", id).Warn("Failed to re-read balance after claim; receipt amount uses pre-claim pending")
	}

	return &Receipt{
		TxHash:  tx.Hash().Hex(),
		AssetID: id,
		Amount:  amount,
	}, nil
}

// settledAmount is what a claim actually withdrew: the growth of the
// cumulative claimed balance across the write. Claimed only ever grows, so
// the delta stays exact even when deposits land while the transaction is in
// flight.
func settledAmount(before, after *Balance) models.Amount {
	return after.Claimed.Sub(before.Claimed)
}

// decodeAsset normalizes the positional getAsset tuple into a typed Asset.
func decodeAsset(id uint64, out []interface{}, decimals int) (*models.Asset, error) {
	if len(out) != 9 {
		return nil, fmt.Errorf("getAsset: unexpected output arity %d", len(out))
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return nil, fmt.Errorf("getAsset: unexpected owner type %T", out[0])
	}
	title, ok := out[1].(string)
	if !ok {
		return nil, fmt.Errorf("getAsset: unexpected title type %T", out[1])
	}
	description, ok := out[2].(string)
	if !ok {
		return nil, fmt.Errorf("getAsset: unexpected description type %T", out[2])
	}
	category, ok := out[3].(string)
	if !ok {
		return nil, fmt.Errorf("getAsset: unexpected category type %T", out[3])
	}
	mode, ok := out[4].(uint8)
	if !ok {
		return nil, fmt.Errorf("getAsset: unexpected license mode type %T", out[4])
	}
	basePrice, ok := out[5].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAsset: unexpected base price type %T", out[5])
	}
	rentPrice, ok := out[6].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAsset: unexpected rent price type %T", out[6])
	}
	rate, ok := out[7].(uint8)
	if !ok {
		return nil, fmt.Errorf("getAsset: unexpected royalty rate type %T", out[7])
	}
	parent, ok := out[8].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAsset: unexpected parent id type %T", out[8])
	}

	return &models.Asset{
		ID:          id,
		Owner:       owner.Hex(),
		Title:       title,
		Description: description,
		Category:    category,
		LicenseMode: models.LicenseMode(mode),
		BasePrice:   models.AmountFromUnits(basePrice, decimals),
		RentPrice:   models.AmountFromUnits(rentPrice, decimals),
		RoyaltyRate: rate,
		ParentID:    parent.Uint64(),
	}, nil
}

// mapCallError folds contract revert reasons onto the gateway taxonomy.
func mapCallError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unknown asset"), strings.Contains(msg, "nonexistent token"):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case strings.Contains(msg, "not owner"), strings.Contains(msg, "not the owner"):
		return fmt.Errorf("%w: %v", ErrInsufficientAuthorization, err)
	case strings.Contains(msg, "nothing pending"), strings.Contains(msg, "no balance"):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case strings.Contains(msg, "execution reverted"):
		return fmt.Errorf("%w: %v", ErrRejected, err)
	default:
		return err
	}
}
