package tracker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	var s, err = OpenStore(filepath.Join(t.TempDir(), "samtrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStoreTacticals(t *testing.T) {
	var s, err = OpenStore("file::memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveTactical("W1ABC-9", "AID1"))
	require.NoError(t, s.SaveTactical("K1AAA", "NET"))
	require.NoError(t, s.SaveTactical("W1ABC-9", "AID2"))

	var got map[string]string
	got, err = s.Tacticals()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"W1ABC-9": "AID2", "K1AAA": "NET"}, got)

	require.NoError(t, s.SaveTactical("K1AAA", ""))
	got, err = s.Tacticals()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"W1ABC-9": "AID2"}, got)
}

func TestStoreObjects(t *testing.T) {
	var s = openTestStore(t)

	require.NoError(t, s.SaveObject("OBJ2", ";OBJ2     *...", t0.Add(time.Minute)))
	require.NoError(t, s.SaveObject("OBJ1", ";OBJ1     *old", t0))
	require.NoError(t, s.SaveObject("OBJ1", ";OBJ1     *new", t0.Add(2*time.Minute)))

	var objs, err = s.Objects()
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "OBJ2", objs[0].Name)
	assert.Equal(t, "OBJ1", objs[1].Name)
	assert.Equal(t, ";OBJ1     *new", objs[1].Info)
	assert.True(t, t0.Add(2*time.Minute).Equal(objs[1].Updated))

	require.NoError(t, s.DeleteObject("OBJ2"))
	require.NoError(t, s.DeleteObject("NOPE"))

	objs, err = s.Objects()
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "OBJ1", objs[0].Name)
}

func TestStoreSurvivesRestart(t *testing.T) {
	var s = openTestStore(t)

	var tr, rec, _ = newTestTracker(t, nil)
	require.NoError(t, tr.AttachStore(s))

	require.NoError(t, tr.SetObject(testSpec(t, "OBJ1")))
	require.NoError(t, tr.SetObject(testSpec(t, "OBJ2")))
	require.NoError(t, tr.KillObject("OBJ2"))
	require.NoError(t, tr.SetTactical("w1abc-9", "AID1"))
	_, _ = rec.Take()

	var objs, err = s.Objects()
	require.NoError(t, err)
	require.Len(t, objs, 1, "killed objects are forgotten")
	assert.Equal(t, "OBJ1", objs[0].Name)

	// Start again with the same database.
	var tr2, rec2, clock2 = newTestTracker(t, nil)
	clock2.Advance(10 * time.Minute)
	require.NoError(t, tr2.AttachStore(s))

	var st, found = tr2.Snapshot("OBJ1")
	require.True(t, found)
	assert.Equal(t, ST_MYOBJITEM|ST_ACTIVE, st.Flags&(ST_MYOBJITEM|ST_ACTIVE))
	assert.Equal(t, "Field day", st.LatestComment())

	_, found = tr2.Snapshot("OBJ2")
	assert.False(t, found)

	// Carries on being sent.
	tr2.Tick(clock2.Advance(time.Minute))
	var _, out = rec2.Take()
	require.Len(t, out, 1)
	assert.Contains(t, out[0].Line, ":;OBJ1     *")

	// Tactical calls apply to stations heard later.
	require.NoError(t, tr2.ProcessLine("W1ABC-9>APRS:!4903.50N/07201.75W>", DATA_VIA_TNC, 0, false))
	st, found = tr2.Snapshot("W1ABC-9")
	require.True(t, found)
	assert.Equal(t, "AID1", st.Tactical)
}
