// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyLoggerFollowsRoot(t *testing.T) {
	logger := WithContext("pkg", "staking")

	var buf bytes.Buffer
	h, err := NewHandler(&buf, FormatJSON, LevelDebug, false)
	require.NoError(t, err)
	SetDefault(h)
	defer SetDefault(DiscardHandler())

	logger.Info("staked", "amount", 5)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "staked", rec["msg"])
	assert.Equal(t, "staking", rec["pkg"])
	assert.Equal(t, float64(5), rec["amount"])
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&buf, FormatLogfmt, LevelInfo, false)
	require.NoError(t, err)

	l := NewLogger(h).New("pkg", "pos")
	l.Debug("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, l.Enabled(LevelDebug))

	l.Warn("shown", "index", 1)
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "pkg=pos")
}

func TestNewHandlerUnknownFormat(t *testing.T) {
	_, err := NewHandler(&bytes.Buffer{}, "xml", LevelInfo, false)
	assert.Error(t, err)
}

func TestFromVerbosity(t *testing.T) {
	assert.Equal(t, LevelCrit, FromVerbosity(0))
	assert.Equal(t, LevelInfo, FromVerbosity(3))
	assert.Equal(t, LevelTrace, FromVerbosity(5))
}
