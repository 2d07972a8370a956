package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-fact-standardizer/cmd/standardizer/config"
	"golang-fact-standardizer/internal/facts"
	"golang-fact-standardizer/internal/store"
	"golang-fact-standardizer/pkg/errors"
	"golang-fact-standardizer/pkg/logger"
)

func writeSample(t *testing.T, filings int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.tsv")
	sample := facts.DefaultSampleConfig()
	sample.Filings = filings
	sample.MissingRatio = 0.25
	require.NoError(t, generateSample(path, sample))
	return path
}

func testOptions(factsFile string) standardizeOptions {
	return standardizeOptions{
		FactsFile:    factsFile,
		Statement:    "bs",
		MaxErrors:    100,
		OutputFormat: "json",
		Run:          config.DefaultRunOptions(),
	}
}

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.tsv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		filePath    string
		expectError bool
	}{
		{"valid file", validFile, false},
		{"empty path", "", true},
		{"non-existent file", filepath.Join(tmpDir, "missing.tsv"), true},
		{"directory instead of file", tmpDir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, "test file")
			if tt.expectError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateOptions(t *testing.T) {
	factsFile := writeSample(t, 3)

	tests := []struct {
		name          string
		modify        func(o *standardizeOptions)
		errorContains string
	}{
		{
			name:   "valid options",
			modify: func(o *standardizeOptions) {},
		},
		{
			name:          "missing facts",
			modify:        func(o *standardizeOptions) { o.FactsFile = "" },
			errorContains: "facts is required",
		},
		{
			name:          "missing statement",
			modify:        func(o *standardizeOptions) { o.Statement = "" },
			errorContains: "statement is required",
		},
		{
			name:          "unknown statement",
			modify:        func(o *standardizeOptions) { o.Statement = "xx" },
			errorContains: "unknown statement",
		},
		{
			name:          "invalid output format",
			modify:        func(o *standardizeOptions) { o.OutputFormat = "xml" },
			errorContains: "invalid output format",
		},
		{
			name:          "invalid iterations",
			modify:        func(o *standardizeOptions) { o.Run.Iterations = 0 },
			errorContains: "iterations",
		},
		{
			name:          "missing output directory",
			modify:        func(o *standardizeOptions) { o.OutputFile = "/non/existent/dir/out.json" },
			errorContains: "output directory does not exist",
		},
		{
			name:          "negative max errors",
			modify:        func(o *standardizeOptions) { o.MaxErrors = -1 },
			errorContains: "max errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(factsFile)
			tt.modify(&opts)
			err := validateOptions(opts)
			if tt.errorContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestStandardizeWritesReportAndStoresRun(t *testing.T) {
	factsFile := writeSample(t, 20)
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	opts := testOptions(factsFile)
	opts.SQLitePath = dbPath
	opts.Run.Workers = 3

	var out bytes.Buffer
	result, err := standardize(context.Background(), opts, &out, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "BS", result.Statement)
	assert.LessOrEqual(t, result.Table.Len(), 20)
	assert.Greater(t, result.Table.Len(), 0)

	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, result.RunID, report["run_id"])
	rows, ok := report["rows"].([]interface{})
	require.True(t, ok)
	assert.Len(t, rows, result.Table.Len())

	st, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.GetRun(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.Table.Len(), run.Rows)

	table, err := st.LoadTable(context.Background(), result.RunID)
	require.NoError(t, err)
	assert.True(t, result.Table.Equal(table))

	var listing bytes.Buffer
	require.NoError(t, listRuns(context.Background(), st, store.RunFilter{Statement: "BS"}, &listing))
	assert.Contains(t, listing.String(), result.RunID)

	var details bytes.Buffer
	require.NoError(t, showRun(context.Background(), st, result.RunID, &details))
	assert.Contains(t, details.String(), "Rule contributions:")
	assert.Contains(t, details.String(), fmt.Sprintf("Rows:           %d", result.Table.Len()))
}

func TestStandardizeShardCountDoesNotChangeTable(t *testing.T) {
	factsFile := writeSample(t, 30)

	opts := testOptions(factsFile)
	opts.OutputFormat = "csv"

	var single, sharded bytes.Buffer
	_, err := standardize(context.Background(), opts, &single, logger.NewNopLogger())
	require.NoError(t, err)

	opts.Run.Workers = 4
	_, err = standardize(context.Background(), opts, &sharded, logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, single.String(), sharded.String())
}

func TestStandardizeWithEmptySelection(t *testing.T) {
	factsFile := writeSample(t, 2)

	opts := testOptions(factsFile)
	opts.StmtFilter = "IS"

	_, err := standardize(context.Background(), opts, &bytes.Buffer{}, logger.NewNopLogger())
	require.NoError(t, err, "an empty selection is not an error")

	opts.Statement = "is"
	opts.StmtFilter = ""
	_, err = standardize(context.Background(), opts, &bytes.Buffer{}, logger.NewNopLogger())
	require.NoError(t, err)
}

func TestStandardizeMissingFile(t *testing.T) {
	opts := testOptions(filepath.Join(t.TempDir(), "missing.tsv"))
	_, err := standardize(context.Background(), opts, &bytes.Buffer{}, logger.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFile))
}

func TestDescribeStatement(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, describeStatement("BS", true, &out))

	text := out.String()
	assert.Contains(t, text, "Final tags:")
	assert.Contains(t, text, "AssetsCheck")
	assert.Contains(t, text, "MAIN_0_BS_")
	assert.Contains(t, text, "POST_BS_")

	assert.Error(t, describeStatement("xx", false, &out))
}

func TestCLIErrorHandler(t *testing.T) {
	var out bytes.Buffer
	handler := &CLIErrorHandler{logger: logger.NewNopLogger(), out: &out}

	assert.Equal(t, 0, handler.HandleError(nil))

	code := handler.HandleError(errors.FileError(errors.CodeFileNotFound, "facts.tsv", os.ErrNotExist))
	assert.Equal(t, 2, code)
	assert.Contains(t, out.String(), "File error help")

	out.Reset()
	code = handler.HandleError(fmt.Errorf("wrapped: %w", errors.StorageError("save run", os.ErrPermission)))
	assert.Equal(t, 6, code)
	assert.Contains(t, out.String(), "Storage error help")

	out.Reset()
	assert.Equal(t, 2, handler.HandleError(os.ErrPermission))
	assert.True(t, strings.HasPrefix(out.String(), "Error: Permission denied"))

	out.Reset()
	assert.Equal(t, 1, handler.HandleError(fmt.Errorf("boom")))
}
