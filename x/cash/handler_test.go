package cash

import (
	"context"
	"testing"

	"github.com/cipherlock/cipherlock"
	"github.com/cipherlock/cipherlock/app"
	"github.com/cipherlock/cipherlock/cipherlocktest"
	"github.com/cipherlock/cipherlock/cipherlocktest/assert"
	"github.com/cipherlock/cipherlock/coin"
	"github.com/cipherlock/cipherlock/errors"
	"github.com/cipherlock/cipherlock/store"
)

func TestSendHandler(t *testing.T) {
	var (
		alice = cipherlocktest.NewCondition()
		bob   = cipherlocktest.NewCondition().Address()
	)

	cases := map[string]struct {
		msg    SendMsg
		signer cipherlock.Condition
		// Check verifies only the message and the signature. Funds
		// are not touched before delivery.
		wantCheckErr   *errors.Error
		wantDeliverErr *errors.Error
		// wantDest is the expected destination balance after a
		// successful delivery.
		wantDest coin.Coins
	}{
		"happy path": {
			msg: SendMsg{
				Source:      alice.Address(),
				Destination: bob,
				Amount:      coin.NewCoinp(40, 0, "IOV"),
				Memo:        "rent",
			},
			signer:   alice,
			wantDest: coin.Coins{coin.NewCoinp(40, 0, "IOV")},
		},
		"source signature missing": {
			msg: SendMsg{
				Source:      alice.Address(),
				Destination: bob,
				Amount:      coin.NewCoinp(40, 0, "IOV"),
			},
			signer:         cipherlocktest.NewCondition(),
			wantCheckErr:   errors.ErrUnauthorized,
			wantDeliverErr: errors.ErrUnauthorized,
		},
		"insufficient funds": {
			msg: SendMsg{
				Source:      alice.Address(),
				Destination: bob,
				Amount:      coin.NewCoinp(123, 0, "IOV"),
			},
			signer:         alice,
			wantDeliverErr: errors.ErrAmount,
		},
		"non-positive amount": {
			msg: SendMsg{
				Source:      alice.Address(),
				Destination: bob,
				Amount:      coin.NewCoinp(0, 0, "IOV"),
			},
			signer:         alice,
			wantCheckErr:   errors.ErrAmount,
			wantDeliverErr: errors.ErrAmount,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController(NewBucket())
			assert.Nil(t, ctrl.IssueCoins(db, alice.Address(), coin.NewCoin(100, 0, "IOV")))

			auth := &cipherlocktest.CtxAuth{Key: "auth"}
			h := NewSendHandler(auth, ctrl)
			ctx := auth.SetConditions(context.Background(), tc.signer)
			tx := &cipherlocktest.Tx{Msg: &tc.msg}

			if _, err := h.Check(ctx, db, tx); !tc.wantCheckErr.Is(err) {
				t.Fatalf("check: %+v", err)
			}
			if _, err := h.Deliver(ctx, db, tx); !tc.wantDeliverErr.Is(err) {
				t.Fatalf("deliver: %+v", err)
			}
			if tc.wantDeliverErr != nil {
				return
			}

			got, err := ctrl.Balance(db, tc.msg.Destination)
			assert.Nil(t, err)
			assert.Equal(t, tc.wantDest, got)
		})
	}
}

func TestRegisterRoutes(t *testing.T) {
	var (
		alice = cipherlocktest.NewCondition()
		bob   = cipherlocktest.NewCondition().Address()
	)

	db := store.MemStore()
	ctrl := NewController(NewBucket())
	assert.Nil(t, ctrl.IssueCoins(db, alice.Address(), coin.NewCoin(10, 0, "IOV")))

	auth := &cipherlocktest.CtxAuth{Key: "auth"}
	r := app.NewRouter()
	RegisterRoutes(r, auth, ctrl)

	ctx := auth.SetConditions(context.Background(), alice)
	tx := &cipherlocktest.Tx{Msg: &SendMsg{
		Source:      alice.Address(),
		Destination: bob,
		Amount:      coin.NewCoinp(10, 0, "IOV"),
	}}
	_, err := r.Deliver(ctx, db, tx)
	assert.Nil(t, err)

	got, err := ctrl.Balance(db, bob)
	assert.Nil(t, err)
	assert.Equal(t, coin.Coins{coin.NewCoinp(10, 0, "IOV")}, got)
}

func TestRegisterQuery(t *testing.T) {
	alice := cipherlocktest.NewCondition().Address()

	db := store.MemStore()
	ctrl := NewController(NewBucket())
	assert.Nil(t, ctrl.IssueCoins(db, alice, coin.NewCoin(7, 0, "IOV")))

	qr := cipherlock.NewQueryRouter()
	RegisterQuery(qr)

	h := qr.Handler("/wallets")
	if h == nil {
		t.Fatal("wallets query not registered")
	}
	models, err := h.Query(db, "", alice)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(models))

	var w Wallet
	assert.Nil(t, w.Unmarshal(models[0].Value))
	assert.Equal(t, coin.Coins{coin.NewCoinp(7, 0, "IOV")}, w.Coins)
}
