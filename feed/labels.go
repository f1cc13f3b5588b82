////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package feed

import (
	"github.com/pkg/errors"
)

// Labels is the closed label catalog posts select from. Order here is the
// order the composer presents them in.
var Labels = []string{
	"General",
	"Relationship",
	"Academics",
	"Fitness",
	"Finance",
	"Tips",
	"Others",
}

// DefaultLabels is applied when a post is created with no label selected.
var DefaultLabels = []string{"General"}

// ValidLabel reports whether the label is in the catalog.
func ValidLabel(label string) bool {
	for _, l := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

// NormalizeLabels validates a label selection: unknown labels are rejected,
// duplicates collapse onto the first occurrence, selection order is kept, and
// an empty selection falls back to DefaultLabels.
func NormalizeLabels(labels []string) ([]string, error) {
	if len(labels) == 0 {
		return append([]string{}, DefaultLabels...), nil
	}

	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if !ValidLabel(label) {
			return nil, errors.Errorf("unknown label %q", label)
		}
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out, nil
}
