package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck_CaseInsensitive(t *testing.T) {
	got := NewChecker().Check("The Client Was AT FAULT", []string{"at fault"})
	assert.Equal(t, []string{"at fault"}, got)
}

func TestCheck_PreservesOrderAndDuplicates(t *testing.T) {
	text := "You will definitely win, and we guarantee a settlement."
	got := NewChecker().Check(text, []string{"guarantee", "you will definitely win", "guarantee", "free money"})
	assert.Equal(t, []string{"guarantee", "you will definitely win", "guarantee"}, got)
}

func TestCheck_Clean(t *testing.T) {
	got := NewChecker().Check("An attorney will review your case.", []string{"you will definitely win"})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestCheck_ParaphraseIsNotCaught(t *testing.T) {
	got := NewChecker().Check("You are certain to prevail.", []string{"you will definitely win"})
	assert.Empty(t, got)
}
