package testutil

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// NewLogger returns a zap-backed logr.Logger that writes through t.Log
// at debug verbosity, so V(1) messages show up with -v.
func NewLogger(t testing.TB) logr.Logger {
	t.Helper()
	return zapr.NewLogger(zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel)))
}
