package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/riverstats/internal/analysis"
	"github.com/jonesrussell/riverstats/internal/gateway"
	"github.com/jonesrussell/riverstats/internal/models"
)

func TestParseKind(t *testing.T) {
	kind, err := parseKind("patrol")
	require.NoError(t, err)
	assert.Equal(t, models.KindPatrol, kind)

	kind, err = parseKind("Evaluation")
	require.NoError(t, err)
	assert.Equal(t, models.KindEvaluation, kind)

	_, err = parseKind("bogus")
	assert.Error(t, err)
}

func TestToday(t *testing.T) {
	assert.Equal(t, time.Now().Format("2006-01-02"), today())
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "********", maskToken("short"))
	assert.Equal(t, "abcd...wxyz", maskToken("abcdefghijklmnopqrstuvwxyz"))
}

func TestExplainRunError(t *testing.T) {
	date := "2025-06-01"

	err := explainRunError(analysis.ErrInvalidDate, "bad")
	assert.Contains(t, err.Error(), "expected YYYY-MM-DD")

	err = explainRunError(analysis.ErrNoData, date)
	assert.Contains(t, err.Error(), "no data")

	err = explainRunError(analysis.ErrNoMatches, date)
	assert.Contains(t, err.Error(), "no records")

	err = explainRunError(&gateway.AuthError{Msg: "token expired"}, date)
	assert.Contains(t, err.Error(), "auth set-token")

	plain := errors.New("something else")
	assert.Equal(t, plain, explainRunError(plain, date))
}
