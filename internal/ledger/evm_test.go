// internal/ledger/evm_test.go
package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javajoker/imi-royalty/internal/models"
)

func TestSettledAmountWithInterleavedDeposit(t *testing.T) {
	// A deposit of 0.5 lands while the claim transaction is in flight. The
	// claimed delta still reports exactly what the claim withdrew.
	before := &Balance{Pending: models.MustAmount("1"), Claimed: models.MustAmount("10")}
	after := &Balance{Pending: models.MustAmount("0.5"), Claimed: models.MustAmount("11")}

	assert.True(t, settledAmount(before, after).Equal(models.MustAmount("1")))
}

func TestSettledAmountQuietLedger(t *testing.T) {
	before := &Balance{Pending: models.MustAmount("0.25"), Claimed: models.MustAmount("1")}
	after := &Balance{Pending: models.MustAmount("0"), Claimed: models.MustAmount("1.25")}

	assert.Equal(t, "0.25", settledAmount(before, after).String())
}

func TestMapCallError(t *testing.T) {
	assert.ErrorIs(t, mapCallError(errors.New("execution reverted: unknown asset")), ErrNotFound)
	assert.ErrorIs(t, mapCallError(errors.New("execution reverted: not owner")), ErrInsufficientAuthorization)
	assert.ErrorIs(t, mapCallError(errors.New("execution reverted: nothing pending")), ErrUnavailable)
	assert.ErrorIs(t, mapCallError(errors.New("execution reverted")), ErrRejected)

	opaque := errors.New("connection refused")
	assert.Equal(t, opaque, mapCallError(opaque))
}
