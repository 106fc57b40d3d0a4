// internal/view/format.go
package view

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/tamzrod/vhostsync/internal/rates"
)

// MessageRate renders a message rate as a whole number, blank when undefined.
func MessageRate(r rates.Rate) string {
	if !r.Defined {
		return ""
	}
	return strconv.FormatFloat(math.Round(r.Value), 'f', 0, 64)
}

// ByteRate renders a byte rate in IEC units per second, blank when undefined.
func ByteRate(r rates.Rate) string {
	if !r.Defined {
		return ""
	}
	return Bytes(r.Value) + "/s"
}

// Bytes renders a byte count in IEC units.
func Bytes(v float64) string {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	return humanize.IBytes(uint64(math.Round(v)))
}

// Value renders a decoded JSON attribute for display.
func Value(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return fmt.Sprint(v)
}
