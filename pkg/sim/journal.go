// Copyright 2025 Anomalab. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package sim

import (
	"bufio"
	"fmt"
	"os"

	"github.com/anomalab/ids-server/pkg/ids"
)

// WriteJournal writes daily logs to a journal file.
// Each day starts with a Day:<n> header, followed by one event:value line
// per event in definition order, then a blank separator line.
func WriteJournal(fileName string, events ids.EventSet, logs []DayLog) error {

	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("creating journal %s: %w", fileName, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, daily := range logs {
		fmt.Fprintf(w, "Day:%d\n", i+1)
		for _, def := range events {
			fmt.Fprintf(w, "%s:%s\n", def.Name, ids.FormatValue(daily[def.Name]))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
