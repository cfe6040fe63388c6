package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrReportNotFound, "no grades for student 7")
	require.True(t, errors.Is(err, ErrReportNotFound))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "no grades for student 7", err.Message)
	assert.Equal(t, "report not found", ErrReportNotFound.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("query: %w", sql.ErrConnDone))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.True(t, errors.Is(appErr, sql.ErrConnDone))
	assert.Nil(t, FromError(nil))
}

func TestRenderWrapsCause(t *testing.T) {
	cause := errors.New("font missing")
	err := Render(cause, "pdf")
	assert.Equal(t, ErrRenderFailed.Code, err.Code)
	assert.Equal(t, "failed to render pdf report: font missing", err.Error())
	assert.True(t, errors.Is(err, cause))
}
