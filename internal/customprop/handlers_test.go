package customprop_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncbridge/pms-wits-sync/internal/customprop"
	"github.com/syncbridge/pms-wits-sync/internal/mapping"
)

func newContext() *customprop.Context {
	return &customprop.Context{
		Logger:   slog.Default(),
		Location: time.UTC,
		ValueTable: []mapping.CustomPropertyValueMapping{
			{ArtifactTypeID: 1, CustomPropertyID: 1, InternalValue: "10", ExternalValue: "Blocker"},
			{ArtifactTypeID: 1, CustomPropertyID: 1, InternalValue: "20", ExternalValue: "7"},
		},
		Users: []mapping.UserMapping{{InternalUserID: 9, ExternalDisplayName: "Jane Doe"}},
	}
}

func TestTextRoundTrip(t *testing.T) {
	c := newContext()
	slot := customprop.Slot{Type: customprop.PropertyText, ExternalField: "Custom.Notes", TextValue: "hello"}
	writes, ok := customprop.ToExternal(c, slot)
	require.True(t, ok)
	assert.Equal(t, "hello", writes[0].Value)
}

func TestSlotWithoutMappingIsSkipped(t *testing.T) {
	c := newContext()
	slot := customprop.Slot{Type: customprop.PropertyText, TextValue: "hello"}
	_, ok := customprop.ToExternal(c, slot)
	assert.False(t, ok)
}

func TestListToExternalArea(t *testing.T) {
	c := newContext()
	slot := customprop.Slot{Type: customprop.PropertyList, ExternalField: customprop.ReservedArea, ListValue: "20"}
	writes, ok := customprop.ToExternal(c, slot)
	require.True(t, ok)
	assert.Equal(t, "System.AreaId", writes[0].FieldName)
	assert.Equal(t, 7, writes[0].Value)
}

func TestMultiListRejectsArea(t *testing.T) {
	c := newContext()
	slot := customprop.Slot{Type: customprop.PropertyMultiList, ExternalField: customprop.ReservedArea, MultiValues: []string{"10"}}
	_, ok := customprop.ToExternal(c, slot)
	assert.False(t, ok)
}

func TestMultiListJoinsSemicolon(t *testing.T) {
	c := newContext()
	slot := customprop.Slot{Type: customprop.PropertyMultiList, ExternalField: "Custom.Tags", MultiValues: []string{"10", "20"}}
	writes, ok := customprop.ToExternal(c, slot)
	require.True(t, ok)
	assert.Equal(t, "Blocker;7", writes[0].Value)
}

func TestMultiListToInternalSplitsSemicolon(t *testing.T) {
	c := newContext()
	slot, changed, ok := customprop.ToInternal(c, customprop.PropertyMultiList, "Blocker;7")
	require.True(t, ok)
	assert.True(t, changed)
	assert.Equal(t, []string{"10", "20"}, slot.MultiValues)
}

func TestUserToExternal(t *testing.T) {
	c := newContext()
	slot := customprop.Slot{Type: customprop.PropertyUser, ExternalField: "System.AssignedTo", UserValue: 9}
	writes, ok := customprop.ToExternal(c, slot)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", writes[0].Value)
}

func TestUserToExternalUnmapped(t *testing.T) {
	c := newContext()
	slot := customprop.Slot{Type: customprop.PropertyUser, ExternalField: "System.AssignedTo", UserValue: 404}
	_, ok := customprop.ToExternal(c, slot)
	assert.False(t, ok)
}

func TestDateConvertsToLocalAndBackToUTC(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	c := newContext()
	c.Location = loc

	utc := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	slot := customprop.Slot{Type: customprop.PropertyDate, ExternalField: "Custom.Date", DateValue: utc}
	writes, ok := customprop.ToExternal(c, slot)
	require.True(t, ok)
	localTime, ok := writes[0].Value.(time.Time)
	require.True(t, ok)
	assert.Equal(t, loc, localTime.Location())

	back, changed, ok := customprop.ToInternal(c, customprop.PropertyDate, localTime)
	require.True(t, ok)
	assert.True(t, changed)
	assert.True(t, back.DateValue.Equal(utc))
}

func TestDecimalCoercion(t *testing.T) {
	c := newContext()
	slot, changed, ok := customprop.ToInternal(c, customprop.PropertyDecimal, 3.14)
	require.True(t, ok)
	assert.True(t, changed)
	assert.InDelta(t, 3.14, slot.DecimalValue, 0.0001)
}
