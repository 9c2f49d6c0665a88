package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayNameFallbacks(t *testing.T) {
	assert.Equal(t, "Label", (&Record{Label: "Label", Name: "Name", ID: "id"}).DisplayName())
	assert.Equal(t, "Name", (&Record{Label: "  ", Name: "Name", ID: "id"}).DisplayName())
	assert.Equal(t, "id", (&Record{ID: "id"}).DisplayName())
	assert.Equal(t, "unnamed evidence", (&Record{}).DisplayName())
}

func TestFirstStudyID(t *testing.T) {
	assert.Empty(t, (&Record{}).FirstStudyID())
	r := &Record{Citations: []Citation{{StudyID: " 123 "}, {StudyID: "456"}}}
	assert.Equal(t, "123", r.FirstStudyID())
}

func TestKindRank(t *testing.T) {
	assert.Less(t, KindProtocol.Rank(), KindSystem.Rank())
	assert.Less(t, KindSystem.Rank(), KindRitual.Rank())
}
