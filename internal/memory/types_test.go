package memory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStance_JSON(t *testing.T) {
	tests := []struct {
		stance Stance
		json   string
	}{
		{StanceAgree, "true"},
		{StanceDisagree, "false"},
		{StanceNone, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.stance.String(), func(t *testing.T) {
			data, err := json.Marshal(tt.stance)
			require.NoError(t, err)
			assert.Equal(t, tt.json, string(data))

			var got Stance
			require.NoError(t, json.Unmarshal([]byte(tt.json), &got))
			assert.Equal(t, tt.stance, got)
		})
	}

	var s Stance
	assert.Error(t, json.Unmarshal([]byte(`"yes"`), &s))
}

func TestEntry_NullAgreementField(t *testing.T) {
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(`{"messageId": 3, "contribution": "draft", "agreement": null}`), &e))
	assert.Equal(t, StanceNone, e.Agreement)
	assert.Equal(t, KindDraft, e.Kind)
	assert.Equal(t, 3, e.MessageID)
}

func TestStanceOf(t *testing.T) {
	assert.Equal(t, StanceAgree, StanceOf(true))
	assert.Equal(t, StanceDisagree, StanceOf(false))
}

func TestKind_IsValid(t *testing.T) {
	for _, k := range []Kind{KindDraft, KindImprove, KindFeedback, KindJudge} {
		assert.True(t, k.IsValid())
	}
	assert.False(t, Kind("vote").IsValid())
}
