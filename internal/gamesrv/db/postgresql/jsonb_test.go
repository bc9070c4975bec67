package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volticar/volticar/internal/gamesrv/db/models"
)

func TestMarshalJSONB_NilHandling(t *testing.T) {
	doc, err := marshalJSONB(nil)
	require.NoError(t, err)
	assert.Nil(t, doc)

	// A typed nil pointer, as a cleared session setup arrives, must become
	// SQL NULL rather than jsonb 'null'.
	var setup *models.SessionSetup
	doc, err = marshalJSONB(setup)
	require.NoError(t, err)
	assert.Nil(t, doc)

	var ids []string
	doc, err = marshalJSONB(ids)
	require.NoError(t, err)
	assert.Nil(t, doc)

	doc, err = marshalJSONB(&models.SessionSetup{SelectedVehicleID: "veh_van"})
	require.NoError(t, err)
	require.NotNil(t, doc)

	var decoded models.SessionSetup
	require.NoError(t, unmarshalJSONB(doc.([]byte), &decoded))
	assert.Equal(t, "veh_van", decoded.SelectedVehicleID)
}

func TestUnmarshalJSONB_NullColumn(t *testing.T) {
	decoded := models.SessionSetup{SelectedVehicleID: "veh_van"}
	require.NoError(t, unmarshalJSONB(nil, &decoded))
	assert.Equal(t, "veh_van", decoded.SelectedVehicleID)
}
