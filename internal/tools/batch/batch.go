package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many items Process handles at once.
const DefaultConcurrency = 4

// MaxItems is the largest batch a single tool call may submit.
const MaxItems = 50

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome for one item of a batch.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates the results of a batch.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseIDs accepts a single ID, a comma separated list of IDs or a JSON
// array of strings and returns the non-empty IDs in order.
func ParseIDs(param interface{}, paramName string) ([]string, error) {
	var ids []string

	switch v := param.(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", paramName)
	case string:
		for _, part := range strings.Split(v, ",") {
			if id := strings.TrimSpace(part); id != "" {
				ids = append(ids, id)
			}
		}
	case []interface{}:
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if str == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			ids = append(ids, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	if len(ids) > MaxItems {
		return nil, fmt.Errorf("%s has %d entries, at most %d are allowed", paramName, len(ids), MaxItems)
	}
	return ids, nil
}

// Process runs fn for every ID with at most DefaultConcurrency calls in
// flight. A failing item does not stop the others; results keep the order
// of ids.
func Process(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			res, err := fn(gctx, id)
			if err != nil {
				results[i] = Result{ID: id, Status: StatusError, Error: err.Error()}
				return nil
			}
			results[i] = Result{ID: id, Status: StatusSuccess, Result: res}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Summarize counts successes and failures.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == StatusSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// FormatResults renders the summary of results as indented JSON.
func FormatResults(results []Result) string {
	jsonBytes, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(jsonBytes)
}
