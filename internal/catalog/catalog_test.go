package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplanner/system/internal/entities"
)

func shiftDef(region, name, start, end string) *entities.ShiftDefinition {
	return &entities.ShiftDefinition{
		ID:        name + "-" + region,
		RegionID:  region,
		Name:      name,
		StartTime: start,
		EndTime:   end,
	}
}

func TestNewShiftCatalogOrdersByStartTime(t *testing.T) {
	cat, err := NewShiftCatalog("us-east", []*entities.ShiftDefinition{
		shiftDef("us-east", "PM", "14:00", "23:00"),
		shiftDef("us-east", "AM", "09:00", "17:00"),
	})
	require.NoError(t, err)

	shifts := cat.Shifts()
	require.Len(t, shifts, 2)
	assert.Equal(t, "AM", shifts[0].Name)
	assert.Equal(t, "PM", shifts[1].Name)
	assert.Equal(t, "AM", cat.Earliest().Name)
	assert.Equal(t, "PM", cat.Latest().Name)
	assert.True(t, cat.IsMultiShift())
}

func TestNewShiftCatalogRejectsEmptyAndDuplicates(t *testing.T) {
	_, err := NewShiftCatalog("us-east", nil)
	assert.Error(t, err, "a region with zero shift definitions is a configuration error")

	_, err = NewShiftCatalog("us-east", []*entities.ShiftDefinition{
		shiftDef("us-east", "AM", "09:00", "17:00"),
		shiftDef("us-east", "AM", "10:00", "18:00"),
	})
	assert.Error(t, err)

	_, err = NewShiftCatalog("us-east", []*entities.ShiftDefinition{
		shiftDef("eu-west", "AM", "09:00", "17:00"),
	})
	assert.Error(t, err, "foreign region definitions are rejected")
}

func TestResolveLegacyAliases(t *testing.T) {
	cat, err := NewShiftCatalog("us-east", []*entities.ShiftDefinition{
		shiftDef("us-east", "AM", "09:00", "17:00"),
		shiftDef("us-east", "MID", "11:00", "19:00"),
		shiftDef("us-east", "PM", "14:00", "23:00"),
	})
	require.NoError(t, err)

	morning, err := cat.Resolve(entities.AffiliationMorning)
	require.NoError(t, err)
	assert.Equal(t, "AM", morning.Name)

	evening, err := cat.Resolve(entities.AffiliationEvening)
	require.NoError(t, err)
	assert.Equal(t, "PM", evening.Name)

	mid, err := cat.Resolve("MID")
	require.NoError(t, err)
	assert.Equal(t, "MID", mid.Name)

	_, err = cat.Resolve("NIGHT")
	assert.Error(t, err)
}

func TestSingleShiftAliasesCollapse(t *testing.T) {
	cat, err := NewShiftCatalog("us-east", []*entities.ShiftDefinition{
		shiftDef("us-east", "AM", "09:00", "17:00"),
	})
	require.NoError(t, err)

	morning, err := cat.Resolve(entities.AffiliationMorning)
	require.NoError(t, err)
	evening, err := cat.Resolve(entities.AffiliationEvening)
	require.NoError(t, err)
	assert.Equal(t, morning.Name, evening.Name)
	assert.False(t, cat.IsMultiShift())
}
