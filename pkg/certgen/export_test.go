package certgen

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportEntryFor(t *testing.T) {
	entry := ExportEntryFor(CertificateRecord{
		Name:      "Alice Smith",
		Category:  " Delegate",
		ObjectKey: "certificates/e1/delegate_Alice_Smith_1_abc.pdf",
	})
	assert.Equal(t, ExportEntry{Name: "delegate/Alice_Smith.pdf", Key: "certificates/e1/delegate_Alice_Smith_1_abc.pdf"}, entry)

	assert.Equal(t, "uncategorized/Bob.png", ExportEntryFor(CertificateRecord{Name: "Bob", ObjectKey: "x.png"}).Name)
}

func TestWriteZip(t *testing.T) {
	store := newMemObjectStore()
	store.objects["a"] = []byte("first")
	store.objects["b"] = []byte("second")

	var buf bytes.Buffer
	err := WriteZip(context.Background(), &buf, store, []ExportEntry{
		{Name: "delegate/Alice.pdf", Key: "a"},
		{Name: "delegate/Alice.pdf", Key: "b"},
	})
	require.NoError(t, err)

	archive, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, archive.File, 2)

	contents := make(map[string]string)
	for _, f := range archive.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[f.Name] = string(data)
	}

	assert.Equal(t, map[string]string{
		"delegate/Alice.pdf":   "first",
		"delegate/Alice_2.pdf": "second",
	}, contents)
}

func TestWriteZipMissingObject(t *testing.T) {
	var buf bytes.Buffer
	err := WriteZip(context.Background(), &buf, newMemObjectStore(), []ExportEntry{{Name: "x.pdf", Key: "missing"}})
	assert.ErrorIs(t, err, ErrStorage)
}

func TestMergePDFs(t *testing.T) {
	c := newTestCompositor(t, FormatPDF)
	tmpl := newTestTemplate(t, 300, 200)

	store := newMemObjectStore()
	for _, name := range []string{"Alice", "Bob"} {
		doc, err := c.Render(tmpl, TextPlacement{PositionX: 50, PositionY: 50}, name)
		require.NoError(t, err)
		store.objects["certificates/e1/"+name+".pdf"] = doc.Data
	}
	store.objects["certificates/e1/Carol.png"] = []byte("not a pdf")

	var buf bytes.Buffer
	merged, err := MergePDFs(context.Background(), &buf, store, []string{
		"certificates/e1/Alice.pdf",
		"certificates/e1/Carol.png",
		"certificates/e1/Bob.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	pages, err := PageCount(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
}

func TestMergePDFsCorruptDocument(t *testing.T) {
	store := newMemObjectStore()
	store.objects["certificates/e1/Alice.pdf"] = []byte("not a pdf")

	var buf bytes.Buffer
	_, err := MergePDFs(context.Background(), &buf, store, []string{"certificates/e1/Alice.pdf"})
	assert.ErrorIs(t, err, ErrDecode)
	assert.Zero(t, buf.Len())
}

func TestMergePDFsNothingToMerge(t *testing.T) {
	var buf bytes.Buffer
	_, err := MergePDFs(context.Background(), &buf, newMemObjectStore(), []string{"a.png"})
	assert.Error(t, err)
}

func TestInspectTemplate(t *testing.T) {
	info, err := InspectTemplate(newTestTemplate(t, 320, 240))
	require.NoError(t, err)

	assert.Equal(t, 320, info.Width)
	assert.Equal(t, 240, info.Height)
	assert.NotEmpty(t, info.BlurHash)

	_, err = InspectTemplate([]byte("nope"))
	assert.ErrorIs(t, err, ErrDecode)
}
