package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksent/internal/repository/csvfile"
	"stocksent/internal/services/sentiment"
	"stocksent/internal/services/symbols"
	"stocksent/pkg/errors"
	"stocksent/pkg/logger"
)

// scriptedOracle returns a canned response per message text and records
// which messages it was asked to score.
type scriptedOracle struct {
	mu        sync.Mutex
	responses map[string]string
	asked     []string
}

func (o *scriptedOracle) SetSystemPrompt(prompt string) {}

func (o *scriptedOracle) Analyze(ctx context.Context, systemPrompt, userText string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.asked = append(o.asked, userText)
	if resp, ok := o.responses[userText]; ok {
		return resp, nil
	}
	return "", errors.ErrOracleUnavailable
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func buildTestPipeline(t *testing.T, dir string, oracle *scriptedOracle) *Pipeline {
	t.Helper()
	log := logger.Get()

	symbolsPath := writeTestFile(t, dir, "symbols.csv", "Symbol\nAAPL\nGOOGL\n")
	ownersPath := writeTestFile(t, dir, "owners.csv",
		"OwnerID,PlayerLevel,MonthsActive\n1,gold,12\n2,silver,3\n")
	gainsPath := writeTestFile(t, dir, "gains.csv", "id,gain\n1,0.25\n")

	symbolRepo := csvfile.NewSymbolRepository(symbolsPath, log)
	userRepo := csvfile.NewUserRepository(ownersPath, gainsPath, log)
	validator := symbols.NewValidator(symbolRepo)
	engine := sentiment.NewEngine(oracle, validator, log, 2)
	processor := sentiment.NewProcessor(engine, 2, log)

	return New(userRepo, processor, log)
}

func TestPipeline_Execute(t *testing.T) {
	dir := t.TempDir()

	oracle := &scriptedOracle{responses: map[string]string{
		"I love $AAPL, not sure about $TSLA": `{"AAPL": 2, "TSLA": 1}`,
		"dumping $GOOGL and $AAPL":           `sure: {"GOOGL": -2, "AAPL": -1} bye`,
	}}

	posts := strings.Join([]string{
		"OwnerId,MessageText,CreateTime",
		`1,"I love $AAPL, not sure about $TSLA",2024-03-05T12:30:00Z`,
		"2,dumping $GOOGL and $AAPL,2024-03-06T08:00:00Z",
		"99,unknown owner shilling $AAPL,2024-03-06T09:00:00Z",
		"1,no tickers here at all,2024-03-06T10:00:00Z",
		"2,$ZZZZ is not in the catalog,2024-03-06T11:00:00Z",
	}, "\n") + "\n"
	srcPath := writeTestFile(t, dir, "posts.csv", posts)
	dstPath := filepath.Join(dir, "output.csv")

	p := buildTestPipeline(t, dir, oracle)
	require.NoError(t, p.Execute(context.Background(), srcPath, dstPath))

	content, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")

	assert.Equal(t, "OwnerID,CreateTime,PlayerLevel,TwoYearGain,MonthsActive,Symbol,SentimentScore", lines[0])

	rows := lines[1:]
	require.Len(t, rows, 3)
	assert.Contains(t, rows, "1,2024-03-05T12:30:00Z,gold,0.25,12,AAPL,2")
	assert.Contains(t, rows, "2,2024-03-06T08:00:00Z,silver,0,3,AAPL,-1")
	assert.Contains(t, rows, "2,2024-03-06T08:00:00Z,silver,0,3,GOOGL,-2")

	// TSLA was scored by the oracle but is not in the catalog
	for _, row := range rows {
		assert.NotContains(t, row, "TSLA")
	}

	// Posts without relevant symbols never reached the oracle; the
	// unknown owner's post was dropped before validation
	for _, asked := range oracle.asked {
		assert.NotContains(t, asked, "no tickers")
		assert.NotContains(t, asked, "ZZZZ")
		assert.NotContains(t, asked, "unknown owner")
	}
	assert.Len(t, oracle.asked, 2)
}

func TestPipeline_Execute_OracleFailureShortensOutput(t *testing.T) {
	dir := t.TempDir()

	// No scripted responses: every call fails
	oracle := &scriptedOracle{responses: map[string]string{}}

	posts := "OwnerId,MessageText,CreateTime\n1,love $AAPL,2024-03-05T12:30:00Z\n"
	srcPath := writeTestFile(t, dir, "posts.csv", posts)
	dstPath := filepath.Join(dir, "output.csv")

	p := buildTestPipeline(t, dir, oracle)
	require.NoError(t, p.Execute(context.Background(), srcPath, dstPath))

	content, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	assert.Equal(t, "OwnerID,CreateTime,PlayerLevel,TwoYearGain,MonthsActive,Symbol,SentimentScore\n", string(content))
}

func TestPipeline_Execute_SchemaErrorAborts(t *testing.T) {
	dir := t.TempDir()
	oracle := &scriptedOracle{responses: map[string]string{}}

	srcPath := writeTestFile(t, dir, "posts.csv", "Wrong,Header,Row\n1,x,y\n")
	dstPath := filepath.Join(dir, "output.csv")

	p := buildTestPipeline(t, dir, oracle)
	err := p.Execute(context.Background(), srcPath, dstPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSchemaMismatch))
}
