package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAge(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	birthdayPassed := time.Date(1996, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &Profile{BirthDate: &birthdayPassed}
	assert.Equal(t, 30, p.Age(now))

	birthdayAhead := time.Date(1996, 9, 1, 0, 0, 0, 0, time.UTC)
	p = &Profile{BirthDate: &birthdayAhead}
	assert.Equal(t, 29, p.Age(now))

	p = &Profile{}
	assert.Equal(t, 0, p.Age(now))
}

func TestOppositeGender(t *testing.T) {
	assert.Equal(t, GenderFemale, OppositeGender(GenderMale))
	assert.Equal(t, GenderMale, OppositeGender(GenderFemale))
	assert.Equal(t, "", OppositeGender(GenderOther))
	assert.Equal(t, "", OppositeGender(""))
}
