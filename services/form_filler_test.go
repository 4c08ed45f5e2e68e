package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"autoapply/models"
)

func TestNormalizedMatch_ExactAfterCaseFold(t *testing.T) {
	assert.True(t, normalizedMatch(models.CapabilityEmail, "Jane@Example.com", "jane@example.com"))
	assert.True(t, normalizedMatch(models.CapabilityName, "  Jane Doe ", "jane doe"))
}

func TestNormalizedMatch_PhonePunctuation(t *testing.T) {
	// Tel widgets reformat aggressively; only the digits need to survive.
	assert.True(t, normalizedMatch(models.CapabilityPhone, "+1 555 123 4567", "+1 (555) 123-4567"))
	assert.True(t, normalizedMatch(models.CapabilityPhone, "5551234567", "555-123-4567"))
	assert.False(t, normalizedMatch(models.CapabilityPhone, "5551234567", "5559999999"))
}

func TestNormalizedMatch_RejectsDifferentValues(t *testing.T) {
	assert.False(t, normalizedMatch(models.CapabilityEmail, "jane@example.com", "john@example.com"))
	assert.False(t, normalizedMatch(models.CapabilityName, "Jane Doe", ""))
}

func TestNormalizeValue_NFKCFold(t *testing.T) {
	// Fullwidth characters fold to their ASCII equivalents.
	assert.Equal(t, "jane", normalizeValue("Ｊａｎｅ"))
	assert.Equal(t, "jane doe", normalizeValue("  Jane DOE "))
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "15551234567", digitsOnly("+1 (555) 123-4567"))
	assert.Equal(t, "", digitsOnly("no digits"))
}

func TestSplitFullName(t *testing.T) {
	first, last := splitFullName("Jane Doe")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Doe", last)

	first, last = splitFullName("Maria da Silva Santos")
	assert.Equal(t, "Maria", first)
	assert.Equal(t, "da Silva Santos", last)

	first, last = splitFullName("Prince")
	assert.Equal(t, "Prince", first)
	assert.Equal(t, "", last)

	first, last = splitFullName("  ")
	assert.Equal(t, "", first)
	assert.Equal(t, "", last)
}

func nameCandidate(cap models.Capability, selector string) models.FieldCandidate {
	return models.FieldCandidate{Capability: cap, Selector: selector, Strategy: "vendor", Confidence: 0.95}
}

func TestNameTargets_SplitPairGetsSplitName(t *testing.T) {
	candidates := map[models.Capability]models.FieldCandidate{
		models.CapabilityFirstName: nameCandidate(models.CapabilityFirstName, "input#first_name"),
		models.CapabilityLastName:  nameCandidate(models.CapabilityLastName, "input#last_name"),
	}

	targets := nameTargets(candidates, "Jane Doe")

	assert.Len(t, targets, 2)
	assert.Equal(t, "input#first_name", targets[0].cand.Selector)
	assert.Equal(t, "Jane", targets[0].value)
	assert.Equal(t, "input#last_name", targets[1].cand.Selector)
	assert.Equal(t, "Doe", targets[1].value)
}

func TestNameTargets_SplitPairOutranksFullNameHit(t *testing.T) {
	// A fallback chain can land a full-name candidate on the first-name
	// input; a located pair is the stronger evidence.
	candidates := map[models.Capability]models.FieldCandidate{
		models.CapabilityName:      nameCandidate(models.CapabilityName, "input#first_name"),
		models.CapabilityFirstName: nameCandidate(models.CapabilityFirstName, "input#first_name"),
		models.CapabilityLastName:  nameCandidate(models.CapabilityLastName, "input#last_name"),
	}

	targets := nameTargets(candidates, "Jane Doe")

	assert.Len(t, targets, 2)
	assert.Equal(t, "Jane", targets[0].value)
	assert.Equal(t, "Doe", targets[1].value)
}

func TestNameTargets_FullNameField(t *testing.T) {
	candidates := map[models.Capability]models.FieldCandidate{
		models.CapabilityName: nameCandidate(models.CapabilityName, "input[name='name']"),
	}

	targets := nameTargets(candidates, "Jane Doe")

	assert.Len(t, targets, 1)
	assert.Equal(t, "Jane Doe", targets[0].value)
}

func TestNameTargets_SingleWordNameSkipsLastField(t *testing.T) {
	candidates := map[models.Capability]models.FieldCandidate{
		models.CapabilityFirstName: nameCandidate(models.CapabilityFirstName, "input#first_name"),
		models.CapabilityLastName:  nameCandidate(models.CapabilityLastName, "input#last_name"),
	}

	targets := nameTargets(candidates, "Prince")

	assert.Len(t, targets, 1)
	assert.Equal(t, "Prince", targets[0].value)
}

func TestNameTargets_NothingLocated(t *testing.T) {
	assert.Empty(t, nameTargets(map[models.Capability]models.FieldCandidate{}, "Jane Doe"))
}

func TestIsPlaceholderOption(t *testing.T) {
	assert.True(t, isPlaceholderOption(""))
	assert.True(t, isPlaceholderOption("0"))
	assert.True(t, isPlaceholderOption("Select an option"))
	assert.True(t, isPlaceholderOption("  -- select --  "))
	assert.False(t, isPlaceholderOption("yes"))
	assert.False(t, isPlaceholderOption("us_citizen"))
}
