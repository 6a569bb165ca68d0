package types

import (
	"encoding/json"
	"testing"

	"github.com/DoyleJ11/liujiatong-server/internal/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlay_PassSentinel(t *testing.T) {
	b, err := json.Marshal(PassPlay())
	require.NoError(t, err)
	assert.Equal(t, `["F"]`, string(b))

	var p Play
	require.NoError(t, json.Unmarshal([]byte(`[ "F" ]`), &p))
	assert.True(t, p.Pass)
	assert.Empty(t, p.Cards)
}

func TestPlay_Cards(t *testing.T) {
	var p Play
	require.NoError(t, json.Unmarshal([]byte(`[{"suit":"Heart","value":5},{"suit":"","value":17}]`), &p))
	assert.False(t, p.Pass)
	assert.Equal(t, []card.Card{card.New(card.Heart, 5), card.BigJoker()}, p.Cards)

	b, err := json.Marshal(CardsPlay(card.New(card.Club, 3)))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"suit":"Club","value":3}]`, string(b))
}

func TestPlay_EmptyListIsPass(t *testing.T) {
	var p Play
	require.NoError(t, json.Unmarshal([]byte(`[]`), &p))
	assert.True(t, p.Pass)
}

func TestPlay_RejectsGarbage(t *testing.T) {
	var p Play
	assert.Error(t, json.Unmarshal([]byte(`{"F":1}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`["G"]`), &p))
}
