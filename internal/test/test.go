package test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Helper(t require.TestingT) {
	if tt, hasHelper := t.(*testing.T); hasHelper {
		tt.Helper()
	}
}
