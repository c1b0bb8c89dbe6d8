package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupName(t *testing.T) {
	assert.Equal(t, "CS101 - Class Group", GroupName("CS101", "Intro to Programming"))
	assert.Equal(t, "Intro to Programming - Class Group", GroupName("", "Intro to Programming"))
	assert.Equal(t, "CS101 - Class Group", GroupName("  CS101  ", "ignored"))
}

func TestMemberLabel(t *testing.T) {
	assert.Equal(t, "0 members", MemberLabel(0))
	assert.Equal(t, "1 member", MemberLabel(1))
	assert.Equal(t, "2 members", MemberLabel(2))
	assert.Equal(t, "17 members", MemberLabel(17))
}

func TestMergeParticipants(t *testing.T) {
	instructor := "teacher-1"

	merged := MergeParticipants(&instructor, []string{"s1", "s2"})
	assert.Equal(t, []string{"teacher-1", "s1", "s2"}, merged)

	// Instructor already enrolled: no duplicate, instructor stays first.
	merged = MergeParticipants(&instructor, []string{"s1", "teacher-1", "s2"})
	assert.Equal(t, []string{"teacher-1", "s1", "s2"}, merged)

	merged = MergeParticipants(nil, []string{"s1", "s1", "s2"})
	assert.Equal(t, []string{"s1", "s2"}, merged)

	empty := ""
	merged = MergeParticipants(&empty, nil)
	assert.Empty(t, merged)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain name", escapeLike("plain name"))
	assert.Equal(t, `100\% Real`, escapeLike("100% Real"))
	assert.Equal(t, `under\_score`, escapeLike("under_score"))
	assert.Equal(t, `back\\slash\%`, escapeLike(`back\slash%`))
}
