package step

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/entropydec/gsrb/criterion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtureDir(t *testing.T, withPretest bool) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ui"), 0o755))

	record := `{"action":"CLICK","locator":{"criteria":{"TEXT":"OK"}}}
{"action":"EXIST","locator":{"criteria":{"TEXT":"Next"}},"parameter":{"generated":true}}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "record.txt"), []byte(record), 0o644))

	for _, name := range []string{"0.xml", "1.xml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ui", name), []byte("<hierarchy/>"), 0o644))
	}
	for _, name := range []string{"0.png", "1.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ui", name), []byte{0x89, 0x50}, 0o644))
	}

	if withPretest {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "pretest.py"), []byte("# pretest"), 0o644))
	}
	return dir
}

func TestLoadTestCaseFromDirectory(t *testing.T) {
	dir := writeFixtureDir(t, true)

	tc, pretest, err := LoadTestCase(dir, false)
	require.NoError(t, err)
	require.Len(t, tc, 2)

	assert.True(t, tc[0].HasUI())
	assert.Equal(t, "<hierarchy/>", tc[0].UIBefore.XML)

	assert.False(t, tc[1].HasUI())
	assert.True(t, tc[1].Event.IsGeneratedAssertion())

	assert.Equal(t, "# pretest", pretest)
}

func TestLoadTestCaseWithoutPretestIsEmptyString(t *testing.T) {
	dir := writeFixtureDir(t, false)
	_, pretest, err := LoadTestCase(dir, false)
	require.NoError(t, err)
	assert.Equal(t, "", pretest)
}

func TestLoadTestCaseFromZipArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "archive.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	writeZipEntry := func(name string, data []byte) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}

	writeZipEntry("record.txt", []byte(`{"action":"CLICK","locator":{"criteria":{"TEXT":"OK"}}}`+"\n"))
	writeZipEntry("ui/0.xml", []byte("<hierarchy/>"))
	writeZipEntry("ui/0.png", []byte{0x89, 0x50})
	writeZipEntry("ui/1.xml", []byte("<hierarchy/>"))
	writeZipEntry("ui/1.png", []byte{0x89, 0x50})

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	tc, pretest, err := LoadTestCase(zipPath, false)
	require.NoError(t, err)
	require.Len(t, tc, 1)
	assert.True(t, tc[0].HasUI())
	assert.Equal(t, "", pretest)
}

func TestLoadTestCaseSelectsGeneratedRecordFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ui"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui", "0.xml"), []byte("<hierarchy/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui", "0.png"), []byte{1}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui", "1.xml"), []byte("<hierarchy/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui", "1.png"), []byte{1}, 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "record.txt"),
		[]byte(`{"action":"CLICK","locator":{"criteria":{"TEXT":"plain"}}}`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "record_with_assertion.txt"),
		[]byte(`{"action":"CLICK","locator":{"criteria":{"TEXT":"annotated"}}}`+"\n"), 0o644))

	tc, _, err := LoadTestCase(dir, true)
	require.NoError(t, err)
	require.Len(t, tc, 1)
	assert.Equal(t, "annotated", tc[0].Event.Locator.Criteria[criterion.Text])
}
