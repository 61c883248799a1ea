package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportStatusValid(t *testing.T) {
	for _, s := range ReportStatuses {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, ReportStatus("").Valid())
	assert.False(t, ReportStatus("Confirmed").Valid())
	assert.False(t, ReportStatus("archived").Valid())
}
