package creative

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ContrastRatio computes the WCAG contrast ratio between two #rrggbb
// colors. The result is in [1, 21]; 4.5 is the accessibility floor the
// color contract enforces.
func ContrastRatio(fg, bg string) (float64, error) {
	lf, err := relativeLuminance(fg)
	if err != nil {
		return 0, err
	}
	lb, err := relativeLuminance(bg)
	if err != nil {
		return 0, err
	}
	lighter, darker := lf, lb
	if darker > lighter {
		lighter, darker = darker, lighter
	}
	return (lighter + 0.05) / (darker + 0.05), nil
}

func relativeLuminance(hex string) (float64, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("invalid color %q", hex)
	}
	var channels [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid color %q: %w", hex, err)
		}
		c := float64(v) / 255
		if c <= 0.03928 {
			c = c / 12.92
		} else {
			c = math.Pow((c+0.055)/1.055, 2.4)
		}
		channels[i] = c
	}
	return 0.2126*channels[0] + 0.7152*channels[1] + 0.0722*channels[2], nil
}
