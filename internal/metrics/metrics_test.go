package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/markov/internal/chain"
	"github.com/danielpatrickdp/markov/internal/sequencer"
)

func TestObserveSequence(t *testing.T) {
	m := New(false)
	m.ObserveSequence("terminal", 3, true)
	m.ObserveSequence("terminal", 1, false)
	m.ObserveSequence("max_length", 50, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sequences.WithLabelValues("terminal", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sequences.WithLabelValues("terminal", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sequences.WithLabelValues("max_length", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.sequenceLength))
}

func TestObserveProductionAndKeys(t *testing.T) {
	m := New(false)
	m.ObserveProduction("words", nil)
	m.ObserveProduction("words", errors.New("boom"))
	m.SetChainKeys("story", 12)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.productions.WithLabelValues("words", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.productions.WithLabelValues("words", "error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.chainKeys.WithLabelValues("story")))
}

func TestSequencerReportsToMetrics(t *testing.T) {
	c, err := chain.Build([][]string{{"I", "run", "."}}, 1)
	require.NoError(t, err)
	m := New(false)

	cfg := sequencer.DefaultConfig()
	cfg.Count = 4
	cfg.InitialOnly = true
	s, err := sequencer.New(c, cfg, sequencer.NewRand(1), sequencer.WithObserver(m))
	require.NoError(t, err)
	_, err = s.Produce()
	require.NoError(t, err)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.sequences.WithLabelValues("terminal", "true")))
}

func TestHandler(t *testing.T) {
	m := New(true)
	m.ObserveProduction("chars", nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `markov_productions_total{domain="chars",outcome="ok"} 1`), text)
	assert.True(t, strings.Contains(text, "go_goroutines"))
}
