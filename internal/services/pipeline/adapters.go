package pipeline

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"stocksent/internal/csvio"
	"stocksent/internal/domain/social"
	"stocksent/internal/metrics"
	"stocksent/pkg/errors"
)

// postTimeFormats are tried in order when decoding CreateTime. Unparseable
// timestamps decode to the zero time rather than failing the row.
var postTimeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PostAdapter decodes the pipeline input file (OwnerId, MessageText, CreateTime).
type PostAdapter struct{}

func (PostAdapter) Headers() []string { return []string{"OwnerId", "MessageText", "CreateTime"} }

func (PostAdapter) FromRecord(fields []string) (social.Post, error) {
	if len(fields) != 3 {
		return social.Post{}, errors.Wrapf(errors.ErrFieldCount, "expected 3 fields, got %d", len(fields))
	}
	ownerID, _ := strconv.Atoi(fields[0])
	var createTime time.Time
	for _, format := range postTimeFormats {
		if t, err := time.Parse(format, strings.TrimSpace(fields[2])); err == nil {
			createTime = t
			break
		}
	}
	return social.Post{
		OwnerID:     ownerID,
		MessageText: fields[1],
		CreateTime:  createTime,
	}, nil
}

// ToLines is unused; posts are only read.
func (PostAdapter) ToLines(social.Post) []string { return nil }

// ResponseAdapter encodes one output row per (response, scored-symbol)
// pair. A response with zero scores emits zero rows.
type ResponseAdapter struct{}

func (ResponseAdapter) Headers() []string {
	return []string{"OwnerID", "CreateTime", "PlayerLevel", "TwoYearGain", "MonthsActive", "Symbol", "SentimentScore"}
}

// FromRecord is unused; responses are only written.
func (ResponseAdapter) FromRecord([]string) (social.SentimentResponse, error) {
	return social.SentimentResponse{}, errors.Wrapf(errors.ErrInternal, "response adapter does not decode")
}

func (ResponseAdapter) ToLines(resp social.SentimentResponse) []string {
	if len(resp.Scores) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(resp.Scores))
	for symbol := range resp.Scores {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	req := resp.Request
	lines := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		fields := []string{
			strconv.Itoa(req.OwnerID),
			req.CreateTime.Format(time.RFC3339Nano),
			csvio.EscapeField(req.Level),
			req.TwoYearGain.String(),
			strconv.Itoa(req.MonthsActive),
			csvio.EscapeField(symbol),
			strconv.Itoa(resp.Scores[symbol]),
		}
		lines = append(lines, strings.Join(fields, ","))
		metrics.RowsWritten.Inc()
	}
	return lines
}
