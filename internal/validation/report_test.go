package validation

import (
	"strings"
	"testing"

	"smartbarangay/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateDescription(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateDescription("Flood on Main St"))
	assert.Error(t, ValidateDescription("   "))
	assert.Error(t, ValidateDescription(strings.Repeat("x", 5001)))
}

func TestValidatePatch(t *testing.T) {
	t.Parallel()
	blank, text, place := " ", "Water receding", "Purok 3"

	assert.Error(t, ValidatePatch(models.PostPatch{}))
	assert.Error(t, ValidatePatch(models.PostPatch{Content: &blank}))
	assert.NoError(t, ValidatePatch(models.PostPatch{Content: &text}))
	assert.NoError(t, ValidatePatch(models.PostPatch{Location: &place}))
}

func TestValidateStatus(t *testing.T) {
	t.Parallel()
	for _, s := range []models.ReportStatus{
		models.ReportStatusPending, models.ReportStatusInProgress, models.ReportStatusResponded,
		models.ReportStatusResolved, models.ReportStatusRejected,
	} {
		assert.NoError(t, ValidateStatus(s), s)
	}
	assert.Error(t, ValidateStatus("archived"))
	assert.Error(t, ValidateStatus(""))
}
