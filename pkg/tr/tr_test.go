package tr

import (
	"context"
	"testing"

	"github.com/DRSN-tech/face-matcher/pkg/e"
	"github.com/stretchr/testify/assert"
)

func TestTxFromCtx_Missing(t *testing.T) {
	tx, err := TxFromCtx(context.Background())
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, e.ErrTransactionNotFound)
}

func TestTxFromCtx_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "not a tx")
	_, err := TxFromCtx(ctx)
	assert.ErrorIs(t, err, e.ErrTransactionNotFound)
}
