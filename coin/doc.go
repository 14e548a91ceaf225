/*
Package coin defines the Coin type, the value unit held in escrow and
moved between wallets. A Coin is a whole part, a fractional part with
fixed precision, and a currency ticker.
*/
package coin
