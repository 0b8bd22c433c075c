package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"ats-agent-go/internal/types"
)

func TestApplicantConversionKeepsSkillsAndRating(t *testing.T) {
	rating := 7
	in := types.Applicant{
		ID:              "app-1",
		FullName:        "Jane Doe",
		Email:           "jane@example.com",
		SecondarySkills: []string{"eDiscovery", "Westlaw"},
		TotalYOE:        8.5,
		Status:          "New",
		Rating:          &rating,
	}

	row, err := ApplicantFromType(&in)
	require.NoError(t, err)
	assert.JSONEq(t, `["eDiscovery","Westlaw"]`, string(row.SecondarySkills))

	out := row.ToType()
	assert.Equal(t, in, out)
}

func TestApplicantCorruptSkillsDegradeToEmpty(t *testing.T) {
	row := Applicant{
		ID:              "app-1",
		FullName:        "Jane Doe",
		SecondarySkills: datatypes.JSON("{not valid"),
	}

	out := row.ToType()
	assert.Empty(t, out.SecondarySkills)
	assert.Equal(t, "Jane Doe", out.FullName)
}
