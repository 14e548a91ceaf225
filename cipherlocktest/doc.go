/*
Package cipherlocktest provides mocks and helpers shared by the test
suites: transaction and message stubs, counting handlers and
decorators, authenticators, key generation and store helpers.
*/
package cipherlocktest
