// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffer-dev/coffer/pkg/types"
)

func TestWriteSecretDetail_Table(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	d := types.SecretDetail{
		SecretSummary: types.SecretSummary{
			ID:        "id-1",
			Title:     "GitHub",
			Username:  "ada",
			URL:       "https://github.com",
			CreatedAt: created,
			UpdatedAt: &created,
		},
		Password: "hunter2",
	}

	var buf bytes.Buffer
	require.NoError(t, writeSecretDetail(&buf, formatTable, d, false))
	out := buf.String()

	assert.Contains(t, out, maskPassword)
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "Updated")

	user := strings.Index(out, "Username")
	pass := strings.Index(out, "Password")
	link := strings.Index(out, "URL")
	require.True(t, user >= 0 && pass >= 0 && link >= 0)
	assert.Less(t, user, pass, "password follows the username")
	assert.Less(t, pass, link)

	buf.Reset()
	require.NoError(t, writeSecretDetail(&buf, formatTable, d, true))
	assert.Contains(t, buf.String(), "hunter2")
}

func TestWriteSecretDetail_NoUpdatedRow(t *testing.T) {
	d := types.SecretDetail{SecretSummary: types.SecretSummary{ID: "id-1", Title: "t", Username: "u"}}

	var buf bytes.Buffer
	require.NoError(t, writeSecretDetail(&buf, formatTable, d, false))
	assert.NotContains(t, buf.String(), "Updated")
}
