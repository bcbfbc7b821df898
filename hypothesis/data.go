// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hypothesis

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ReadCSV parses rows of `x₁,…,xₖ,y` into data points.
// Empty lines and lines starting with '#' are skipped. A first row that does not
// parse as numbers is taken as a header. Every row must have the same width k+1 ≥ 2.
func ReadCSV(r io.Reader) ([]DataPoint, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 0

	var data []DataPoint
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv")
		}
		if len(rec) < 2 {
			return nil, errors.Errorf("row %d: need at least one input and the output, got %d fields", row, len(rec))
		}

		values := make([]float64, len(rec))
		for i, field := range rec {
			if values[i], err = strconv.ParseFloat(strings.TrimSpace(field), 64); err != nil {
				break
			}
		}
		if err != nil {
			if row == 1 {
				continue // header
			}
			return nil, errors.Wrapf(err, "row %d", row)
		}

		k := len(values) - 1
		data = append(data, DataPoint{Inputs: values[:k:k], Output: values[k]})
	}

	if len(data) == 0 {
		return nil, errors.New("no data points")
	}
	return data, nil
}
