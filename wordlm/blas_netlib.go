//go:build netlib

package main

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/netlib/blas/netlib"
)

// Building with `-tags netlib` routes matrix products through a system
// CBLAS. Point CGO_LDFLAGS at it, e.g. CGO_LDFLAGS="-lopenblas".
func init() {
	blas64.Use(netlib.Implementation{})
}
