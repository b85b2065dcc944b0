package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fairprice/stats"
	"fairprice/utils"
)

const listingsCSV = `state,locality,price,bedrooms,bathrooms
Nairobi,Westlands,10000,1,1
Nairobi,Westlands,20000,2,1
Nairobi,Westlands,30000,2,2
Nairobi,Westlands,40000,3,2
Nairobi,Westlands,50000,4,3
Nairobi,Kilimani,60000,2,2
Mombasa,Nyali,35000,3,2
Mombasa,Nyali,45000,3,3
Mombasa,,45000,3,3
Mombasa,Nyali,0,3,3
`

func TestBuilderComputesQuartiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, os.WriteFile(path, []byte(listingsCSV), 0o644))

	b, err := NewBuilder(utils.Discard())
	require.NoError(t, err)
	defer b.Close()

	snap, err := b.Build(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Mombasa", "Nairobi"}, snap.Global.ValidStates)
	assert.Equal(t, []string{"Kilimani", "Westlands"}, snap.StateLocalities["Nairobi"])
	assert.Equal(t, []string{"Nyali"}, snap.StateLocalities["Mombasa"])

	require.Len(t, snap.Localities, 3)
	w := snap.Localities[2]
	assert.Equal(t, "Westlands", w.Locality)
	assert.InDelta(t, 20000, w.Q25, 1e-9)
	assert.InDelta(t, 30000, w.Median, 1e-9)
	assert.InDelta(t, 40000, w.Q75, 1e-9)

	n := snap.Localities[1]
	assert.Equal(t, "Nyali", n.Locality)
	assert.InDelta(t, 40000, n.Median, 1e-9)

	// Eight usable rows: two blank or zero-priced rows are dropped.
	assert.InDelta(t, 5.0/8.0, snap.LocationDensity["Westlands"], 1e-12)
	assert.InDelta(t, 20.0/8.0, snap.Global.BedroomMean, 1e-12)
	assert.InDelta(t, 16.0/8.0, snap.Global.BathroomMean, 1e-12)

	_, err = stats.New(snap)
	assert.NoError(t, err)
}

func TestBuilderEmptyInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("state,locality,price,bedrooms,bathrooms\nNairobi,Westlands,0,1,1\n"), 0o644))

	b, err := NewBuilder(nil)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Build(context.Background(), path)
	assert.Error(t, err)
}
