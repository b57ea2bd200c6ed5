package validation

import (
	"fmt"
	"strings"

	"smartbarangay/internal/models"
)

const maxDescriptionLength = 5000

// ValidateDescription checks the free text of a report or announcement.
func ValidateDescription(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("please describe the incident")
	}
	if len(text) > maxDescriptionLength {
		return fmt.Errorf("description must not exceed %d characters", maxDescriptionLength)
	}
	return nil
}

// ValidatePatch checks an edit. At least one field must be set and content,
// when set, must not be blank.
func ValidatePatch(patch models.PostPatch) error {
	if patch.Content == nil && patch.Location == nil {
		return fmt.Errorf("nothing to update")
	}
	if patch.Content != nil {
		return ValidateDescription(*patch.Content)
	}
	return nil
}

// ValidateStatus checks an admin status update.
func ValidateStatus(status models.ReportStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid response status %q", status)
	}
	return nil
}
