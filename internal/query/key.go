// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package query

import (
	"net/url"
	"strings"
)

// Key identifies one cache entry: a resource family plus ordered parts, e.g.
// ("secrets", "2", "mail") or ("secret", "<id>").
type Key struct {
	Resource string
	Parts    []string
}

// NewKey builds a Key.
func NewKey(resource string, parts ...string) Key {
	return Key{Resource: resource, Parts: parts}
}

// String renders the key with escaped parts so distinct keys never collide.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(url.PathEscape(k.Resource))
	for _, p := range k.Parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// Equal reports whether both keys name the same entry.
func (k Key) Equal(other Key) bool {
	if k.Resource != other.Resource || len(k.Parts) != len(other.Parts) {
		return false
	}
	for i := range k.Parts {
		if k.Parts[i] != other.Parts[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix selects k: same resource and every part of
// prefix matches the leading parts of k. A prefix without parts selects the
// whole resource family.
func (k Key) HasPrefix(prefix Key) bool {
	if k.Resource != prefix.Resource || len(prefix.Parts) > len(k.Parts) {
		return false
	}
	for i, p := range prefix.Parts {
		if k.Parts[i] != p {
			return false
		}
	}
	return true
}
