package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-report-api/internal/models"
)

type generatorStub struct {
	calls []string
	args  []interface{}
}

func (g *generatorStub) record(name string, args ...interface{}) {
	g.calls = append(g.calls, name)
	g.args = args
}

func (g *generatorStub) GenerateGroupReport(ctx context.Context, groupID, periodID int64) ([]models.StudentReport, error) {
	g.record("group", groupID, periodID)
	return []models.StudentReport{{StudentID: 11, StudentName: "Ana Ruiz"}}, nil
}

func (g *generatorStub) GenerateStudentReport(ctx context.Context, groupID, studentID, periodID int64) (*models.StudentReport, error) {
	g.record("student", groupID, studentID, periodID)
	return &models.StudentReport{StudentID: studentID}, nil
}

func (g *generatorStub) GenerateExcelReport(ctx context.Context, groupID, periodID int64) ([]byte, error) {
	g.record("xlsx", groupID, periodID)
	return []byte("xlsx"), nil
}

func (g *generatorStub) GenerateCSVReport(ctx context.Context, groupID, periodID int64) ([]byte, error) {
	g.record("csv", groupID, periodID)
	return []byte("csv"), nil
}

func (g *generatorStub) GenerateStudentExcelReport(ctx context.Context, groupID, studentID, periodID int64) ([]byte, error) {
	g.record("student-xlsx", groupID, studentID, periodID)
	return []byte("xlsx"), nil
}

func (g *generatorStub) GeneratePdfReport(ctx context.Context, groupID, periodID int64) ([]byte, error) {
	g.record("pdf", groupID, periodID)
	return []byte("%PDF"), nil
}

func (g *generatorStub) GenerateGroupTablePdf(ctx context.Context, groupID, periodID int64) ([]byte, error) {
	g.record("table", groupID, periodID)
	return []byte("%PDF"), nil
}

func (g *generatorStub) GenerateStudentPdfReport(ctx context.Context, groupID, studentID, periodID int64) ([]byte, error) {
	g.record("student-pdf", groupID, studentID, periodID)
	return []byte("%PDF"), nil
}

func (g *generatorStub) GetGradeDistribution(ctx context.Context, year int, periodID int64, levelID string, subjectID int64) ([]models.GradeDistribution, error) {
	g.record("distribution", year, periodID, levelID, subjectID)
	return []models.GradeDistribution{{GroupID: 3, GroupName: "5 A", High: 2, Total: 2}}, nil
}

func (g *generatorStub) RefreshGradeDistribution(ctx context.Context, year int, periodID int64, levelID string, subjectID int64) ([]models.GradeDistribution, error) {
	g.record("distribution-refresh", year, periodID, levelID, subjectID)
	return []models.GradeDistribution{{GroupID: 3, GroupName: "5 A", High: 2, Total: 2}}, nil
}

func execute(t *testing.T, stub *generatorStub, args ...string) (string, error) {
	t.Helper()
	released := false
	root := newRootCmd(func(ctx context.Context) (reportGenerator, func(), error) {
		return stub, func() { released = true }, nil
	})
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		assert.True(t, released)
	}
	return out.String(), err
}

func TestGroupCommandJSON(t *testing.T) {
	stub := &generatorStub{}
	out, err := execute(t, stub, "group", "3", "7")
	require.NoError(t, err)

	var reports []models.StudentReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	assert.Equal(t, "Ana Ruiz", reports[0].StudentName)
	assert.Equal(t, []interface{}{int64(3), int64(7)}, stub.args)
}

func TestGroupCommandFormats(t *testing.T) {
	for format, call := range map[string]string{"xlsx": "xlsx", "csv": "csv", "pdf": "pdf", "table": "table"} {
		stub := &generatorStub{}
		_, err := execute(t, stub, "group", "3", "7", "--format", format)
		require.NoError(t, err, format)
		assert.Equal(t, []string{call}, stub.calls)
	}
}

func TestStudentCommandWritesFile(t *testing.T) {
	stub := &generatorStub{}
	path := filepath.Join(t.TempDir(), "report.pdf")
	_, err := execute(t, stub, "student", "3", "11", "7", "-f", "pdf", "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
	assert.Equal(t, []string{"student-pdf"}, stub.calls)
}

func TestDistributionCommand(t *testing.T) {
	stub := &generatorStub{}
	out, err := execute(t, stub, "distribution", "--year", "2024", "--period", "7", "--level", "PRI", "--subject", "9")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{2024, int64(7), "PRI", int64(9)}, stub.args)
	assert.Contains(t, out, `"group_name": "5 A"`)

	assert.Equal(t, []string{"distribution"}, stub.calls)

	_, err = execute(t, &generatorStub{}, "distribution", "--year", "2024")
	assert.Error(t, err)
}

func TestDistributionCommandRefresh(t *testing.T) {
	stub := &generatorStub{}
	_, err := execute(t, stub, "distribution", "--year", "2024", "--period", "7", "--level", "PRI", "--subject", "9", "--refresh")
	require.NoError(t, err)
	assert.Equal(t, []string{"distribution-refresh"}, stub.calls)
	assert.Equal(t, []interface{}{2024, int64(7), "PRI", int64(9)}, stub.args)
}

func TestCommandsRejectBadInput(t *testing.T) {
	stub := &generatorStub{}
	_, err := execute(t, stub, "group", "3", "abc")
	assert.Error(t, err)
	_, err = execute(t, stub, "student", "3", "11", "7", "--format", "csv")
	assert.Error(t, err)
	_, err = execute(t, stub, "group", "3")
	assert.Error(t, err)
	assert.Empty(t, stub.calls)
}

func TestOpenFailureStopsCommand(t *testing.T) {
	root := newRootCmd(func(ctx context.Context) (reportGenerator, func(), error) {
		return nil, nil, errors.New("database unreachable")
	})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"group", "3", "7"})
	assert.EqualError(t, root.ExecuteContext(context.Background()), "database unreachable")
}

func TestGroupCommandSavesUnderDirectory(t *testing.T) {
	stub := &generatorStub{}
	dir := t.TempDir()
	_, err := execute(t, stub, "group", "3", "7", "--format", "table", "--dir", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "academic-report-group-3-period-7.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}
