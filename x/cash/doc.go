/*
Package cash keeps track of coin balances and implements moving coins
between wallets.

There is no logic in the coins themselves, except that the balance of
any coin may not go below zero. Thus this implementation is referred to
as cash. Simple and safe.

The escrow extension uses the Controller defined here to take funds
into custody and to pay them out on settlement.
*/
package cash
