package nanoql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffersTech/nanosearch/internal/pkg/fieldparser"
)

// testDoc implements Record for testing
type testDoc map[string]string

func (d testDoc) Field(name string) (string, bool) {
	v, ok := d[name]
	return v, ok
}

func (d testDoc) Text() []string {
	return []string{d["message"], d["service"]}
}

func TestMatch(t *testing.T) {
	doc := testDoc{
		"service": "order-api",
		"level":   "ERROR",
		"message": "Payment declined for user 42",
		"latency": "250",
		"day":     "2024-03-15",
	}

	tests := []struct {
		query string
		want  bool
	}{
		{"payment", true},
		{"refund", false},
		{"ORDER", true},
		{`"declined for"`, true},
		{"level:error", true},
		{"level:warn", false},
		{"service:order*", true},
		{"service:pay*", false},
		{`service:"order*"`, false},
		{"missing:x", false},
		{"latency:[100,300]", true},
		{"latency:[250,250]", true},
		{"latency:[251,]", false},
		{"latency:[,99]", false},
		{"latency:[30,40]", false},
		{`day:["2024-01-01","2024-12-31"]`, true},
		{"day:[2025-01-01,]", false},
		{"level:error AND service:order-api", true},
		{"level:error AND service:billing", false},
		{"level:warn OR payment", true},
		{"NOT level:warn", true},
		{"level:error XOR payment", false},
		{"level:error XOR refund", true},
		{"NOT (level:error AND refund)", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			n, err := Compile(tt.query)
			require.NoError(t, err)
			got, err := Match(n, doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchNil(t *testing.T) {
	got, err := Match(nil, testDoc{})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestPrepareFieldError(t *testing.T) {
	n, err := Compile(`a:"x"y OR z`)
	require.NoError(t, err)

	_, err = Prepare(n)
	var ferr *fieldparser.Error
	require.ErrorAs(t, err, &ferr)
}

func TestQueryReuse(t *testing.T) {
	n, err := Compile("level:error")
	require.NoError(t, err)
	q, err := Prepare(n)
	require.NoError(t, err)

	assert.Same(t, n, q.Root())
	assert.True(t, q.Match(testDoc{"level": "Error"}))
	assert.False(t, q.Match(testDoc{"level": "info"}))
	assert.False(t, q.Match(testDoc{}))
}
