package lmerr

import (
	"fmt"
	"math"
	"os"
	"strings"
	"testing"
)

func TestKinds(t *testing.T) {
	t.Run("CheckFinite flags NaN and both infinities", func(t *testing.T) {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			err := CheckFinite("loss", v)
			if !IsNumericInstability(err) {
				t.Fatalf("expected numeric instability for %v, got %v", v, err)
			}
		}
		if err := CheckFinite("loss", 3.5); err != nil {
			t.Fatalf("finite value rejected: %v", err)
		}
	})
	t.Run("ConfigurationError survives fmt wrapping", func(t *testing.T) {
		_, statErr := os.Stat("/definitely/not/here")
		err := fmt.Errorf("loading: %w", Configuration("open corpus", statErr))
		if !IsConfiguration(err) {
			t.Fatalf("expected configuration error, got %v", err)
		}
		if IsEmptyBatch(err) {
			t.Fatal("configuration error matched empty batch")
		}
	})
	t.Run("Configurationf formats its message", func(t *testing.T) {
		err := Configurationf("batch-size", "must be positive, got %d", -1)
		if !strings.HasPrefix(err.Error(), "configuration: batch-size: must be positive, got -1") {
			t.Fatalf("unexpected message %q", err.Error())
		}
	})
	t.Run("IndexError reports the range", func(t *testing.T) {
		var err error = &IndexError{Index: 9, Size: 4}
		if !IsIndex(err) || err.Error() != "index 9 out of range [0, 4)" {
			t.Fatalf("unexpected %v", err)
		}
	})
}
