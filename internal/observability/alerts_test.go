package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

var metricName = regexp.MustCompile(`tradedesk_[a-z_]+`)

// jobMetrics are registered by the worker, not by Metrics.
var jobMetrics = map[string]bool{"tradedesk_jobs_total": true, "tradedesk_job_duration_seconds": true}

func exportedNames(t *testing.T) map[string]bool {
	t.Helper()
	m := NewMetrics()
	m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	m.ObserveTransition("rolled", errors.New("x"))
	m.ObserveMutation("create", nil)
	m.ObserveStats(nil)

	families, err := m.registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestAlertRules(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", "tradedesk.yml"))
	require.NoError(t, err)

	var spec alertSpec
	require.NoError(t, yaml.Unmarshal(data, &spec))
	require.Len(t, spec.Groups, 1)
	require.Equal(t, "tradedesk", spec.Groups[0].Name)

	known := exportedNames(t)
	seen := map[string]bool{}
	for _, rule := range spec.Groups[0].Rules {
		assert.False(t, seen[rule.Alert], "duplicate alert %s", rule.Alert)
		seen[rule.Alert] = true
		assert.Contains(t, []string{"critical", "warning"}, rule.Labels["severity"], rule.Alert)
		assert.NotEmpty(t, rule.Annotations["summary"], rule.Alert)
		assert.NotEmpty(t, rule.Annotations["description"], rule.Alert)

		refs := metricName.FindAllString(rule.Expr, -1)
		require.NotEmpty(t, refs, rule.Alert)
		for _, ref := range refs {
			base := regexp.MustCompile(`_(bucket|sum|count)$`).ReplaceAllString(ref, "")
			assert.True(t, known[base] || jobMetrics[base], "%s references unknown metric %s", rule.Alert, ref)
		}
	}
	assert.True(t, seen["HighErrorRate"])
	assert.True(t, seen["HighLatency"])
}
