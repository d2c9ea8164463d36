package httpclient

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/skillsenselab/voicekit/util"
)

// MultipartBody is a multipart/form-data request body. Set it as a
// Request's Body and the client encodes it with the matching boundary
// Content-Type. Provider uploads use it to send an audio clip alongside
// its form fields.
type MultipartBody struct {
	// Fields are plain form fields, encoded in sorted key order so the
	// same request always produces the same body.
	Fields map[string]string
	// Files are the file parts, encoded after the fields.
	Files []FileField
}

// FileField is one uploaded file part.
type FileField struct {
	// FieldName is the form field name ("file", "audio").
	FieldName string
	// FileName is the name presented to the server.
	FileName string
	// ContentType overrides the part's MIME type ("audio/wav"). Empty
	// falls back to application/octet-stream.
	ContentType string
	// Data is the content when it is already in memory.
	Data []byte
	// Reader streams the content instead; consulted only when Data is nil.
	Reader io.Reader
}

func (m *MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, k := range util.SortedKeys(m.Fields) {
		if err := w.WriteField(k, m.Fields[k]); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.Files {
		if err := f.write(w); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func (f *FileField) write(w *multipart.Writer) error {
	part, err := f.createPart(w)
	if err != nil {
		return err
	}
	if f.Data != nil {
		_, err = part.Write(f.Data)
		return err
	}
	if f.Reader != nil {
		_, err = io.Copy(part, f.Reader)
		return err
	}
	return nil
}

// createPart uses CreateFormFile unless a ContentType forces a
// hand-built part header.
func (f *FileField) createPart(w *multipart.Writer) (io.Writer, error) {
	if f.ContentType == "" {
		return w.CreateFormFile(f.FieldName, f.FileName)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		`form-data; name="`+escapeQuotes(f.FieldName)+`"; filename="`+escapeQuotes(f.FileName)+`"`)
	header.Set("Content-Type", f.ContentType)
	return w.CreatePart(header)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
