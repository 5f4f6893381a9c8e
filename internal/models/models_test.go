package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in      string
		want    Label
		wantErr bool
	}{
		{"A", LabelA, false},
		{" b ", LabelB, false},
		{"Big", LabelA, false},
		{"small", LabelB, false},
		{"", "", true},
		{"C", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLabel(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnresolvedLabel, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestLabelHelpers(t *testing.T) {
	assert.Equal(t, LabelB, LabelA.Opposite())
	assert.Equal(t, LabelA, LabelB.Opposite())
	assert.Equal(t, 1.0, LabelA.Bit())
	assert.Equal(t, 0.0, LabelB.Bit())
	assert.False(t, Label("").Valid())

	assert.Equal(t, LabelA, LabelFor(0.5))
	assert.Equal(t, LabelB, LabelFor(0.4999))
	assert.Equal(t, LabelB, LabelFromTotal(10.5))
	assert.Equal(t, LabelA, LabelFromTotal(11))
}

func TestValidateSequence(t *testing.T) {
	ok := []Event{{Index: 1, Label: LabelA}, {Index: 2, Label: LabelB}, {Index: 5, Label: LabelA}}
	assert.NoError(t, ValidateSequence(ok))
	assert.NoError(t, ValidateSequence(nil))

	unsorted := []Event{{Index: 2, Label: LabelA}, {Index: 2, Label: LabelB}}
	assert.ErrorIs(t, ValidateSequence(unsorted), ErrUnsortedSequence)

	unresolved := []Event{{Index: 1, Label: LabelA}, {Index: 2, Label: "?"}}
	assert.ErrorIs(t, ValidateSequence(unresolved), ErrUnresolvedLabel)

	negative := []Event{{Index: -1, Label: LabelA}}
	assert.Error(t, ValidateSequence(negative))
}

func TestCloneEventsIsDeep(t *testing.T) {
	events := []Event{{Index: 1, Label: LabelA, MeasuredValue: Float64Ptr(12), Dice: []int{4, 4, 4}}}
	clone := CloneEvents(events)

	*clone[0].MeasuredValue = 3
	clone[0].Dice[0] = 1
	clone[0].Label = LabelB

	assert.Equal(t, 12.0, *events[0].MeasuredValue)
	assert.Equal(t, []int{4, 4, 4}, events[0].Dice)
	assert.Equal(t, LabelA, events[0].Label)
}

func TestSeriesExtraction(t *testing.T) {
	events := []Event{{Index: 1, Label: LabelA}, {Index: 2, Label: LabelB, MeasuredValue: Float64Ptr(7)}}
	assert.Equal(t, []Label{LabelA, LabelB}, Labels(events))
	assert.Equal(t, []float64{1, 0}, Bits(events))
	require.NotNil(t, LastMeasured(events))
	assert.Equal(t, 7.0, *LastMeasured(events))
	assert.Nil(t, LastMeasured(nil))
}

func TestPredictionRecord(t *testing.T) {
	rec := NewPredictionRecord("main", 41, LabelA, 0.7, 40)
	assert.Equal(t, int64(42), rec.Index)
	assert.False(t, rec.Settled())
	assert.False(t, rec.Hit())

	actual := LabelA
	rec.Actual = &actual
	assert.True(t, rec.Settled())
	assert.True(t, rec.Hit())

	miss := LabelB
	rec.Actual = &miss
	assert.False(t, rec.Hit())
}
