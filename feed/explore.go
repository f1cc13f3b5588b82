////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package feed

import (
	"strings"
)

// Search filters posts to those whose body or author name contains the query,
// case-insensitively. An empty query returns the input unchanged. Pure
// client-side filtering over an already fetched feed page.
func Search(posts []Post, query string) []Post {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return posts
	}

	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Body), query) ||
			strings.Contains(strings.ToLower(p.AuthorName), query) {
			out = append(out, p)
		}
	}
	return out
}

// FilterByLabel returns the posts carrying the given label. An empty label
// returns the input unchanged.
func FilterByLabel(posts []Post, label string) []Post {
	if label == "" {
		return posts
	}

	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		for _, l := range p.Labels {
			if l == label {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
