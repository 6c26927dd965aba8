// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package ids

import (
	"math"
	"strconv"
)

// Round2 rounds a value to 2 decimals, the precision used by
// the journal, the baseline statistics and the anomaly scores.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatValue renders a value the way data files store it:
// integers without a decimal part, 3.14 for continuous values.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
