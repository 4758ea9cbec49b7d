package filereader

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/good-jinu/finance-operating-automation-sub000/agents/nodes"
	"github.com/good-jinu/finance-operating-automation-sub000/internal/llmtest"
	"github.com/good-jinu/finance-operating-automation-sub000/workflow"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>결제 계좌 변경 신청서</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">회사명: </w:t></w:r><w:r><w:t>한국상사</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>은행</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>계좌번호</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>국민은행</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>333-03</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p><w:r><w:t>끝</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDOCX(t *testing.T, xmlBody string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(xmlBody))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	text, err := extractDOCX(buildDOCX(t, documentXML))
	require.NoError(t, err)
	assert.Equal(t, "결제 계좌 변경 신청서\n회사명: 한국상사\n은행 | 계좌번호\n국민은행 | 333-03\n끝", text)

	_, err = extractDOCX(nil)
	assert.Error(t, err)

	_, err = extractDOCX([]byte("not a zip"))
	assert.Error(t, err)
}

func TestExtractText(t *testing.T) {
	text, err := extractText([]byte("\xef\xbb\xbf  안녕하세요\n"))
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", text)

	_, err = extractText([]byte{0xff, 0xfe, 0xfd})
	assert.Error(t, err)
}

func TestExtractPDFRejectsEmpty(t *testing.T) {
	_, err := extractPDF(nil)
	assert.Error(t, err)
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "memo.txt"), []byte("메모"), 0o600))

	a := New(nodes.Env{}, WithRoot(dir))
	text, err := a.Read("memo.txt")
	require.NoError(t, err)
	assert.Equal(t, "메모", text)

	_, err = a.Read("image.png")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = a.Read("missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadStaysInsideRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "docs")
	other := filepath.Join(base, "other")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o700))
	require.NoError(t, os.MkdirAll(other, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "memo.txt"), []byte("메모"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(other, "secret.txt"), []byte("API_KEY=sk-123"), 0o600))

	a := New(nodes.Env{}, WithRoot(root))

	text, err := a.Read(filepath.Join(root, "sub", "memo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "메모", text)

	text, err = a.Read("sub/../sub/memo.txt")
	require.NoError(t, err)
	assert.Equal(t, "메모", text)

	for _, path := range []string{
		filepath.Join(other, "secret.txt"),
		"../other/secret.txt",
		"sub/../../other/secret.txt",
	} {
		text, err := a.Read(path)
		assert.ErrorIs(t, err, ErrOutsideRoot, path)
		assert.Empty(t, text, path)
	}

	text, err = New(nodes.Env{}).Read(filepath.Join(other, "secret.txt"))
	require.NoError(t, err)
	assert.Equal(t, "API_KEY=sk-123", text)
}

func TestAgent(t *testing.T) {
	files := map[string][]byte{
		"form.docx": buildDOCX(t, documentXML),
		"note.txt":  []byte("급여 계좌로 사용 예정"),
	}
	readFile := func(path string) ([]byte, error) {
		if b, ok := files[path]; ok {
			return b, nil
		}
		return nil, os.ErrNotExist
	}

	t.Run("summarizes extracted files", func(t *testing.T) {
		p := llmtest.New().Text("한국상사가 국민은행 333-03 계좌로 변경을 요청함")
		a := New(nodes.Env{Model: p}, WithReadFile(readFile))

		s, err := a.Graph().Run(context.Background(), nodes.Seed("첨부 확인 부탁드립니다", "form.docx", "note.txt", "gone.txt"))
		require.NoError(t, err)
		assert.Equal(t, "한국상사가 국민은행 333-03 계좌로 변경을 요청함", workflow.Get(s, nodes.Description))

		prompt := p.Calls()[0].Messages[1].Content
		assert.Contains(t, prompt, "[파일: form.docx]")
		assert.Contains(t, prompt, "국민은행 | 333-03")
		assert.Contains(t, prompt, "급여 계좌로 사용 예정")
		assert.Contains(t, prompt, "첨부 확인 부탁드립니다")
		assert.NotContains(t, prompt, "gone.txt")

		out := a.ProjectOutput(s)
		assert.Equal(t, "한국상사가 국민은행 333-03 계좌로 변경을 요청함", out[nodes.Description.Name()])
	})

	t.Run("truncates long text", func(t *testing.T) {
		p := llmtest.New().Text("요약")
		a := New(nodes.Env{Model: p}, WithReadFile(readFile), WithMaxChars(5))

		s, err := a.Graph().Run(context.Background(), nodes.Seed("", "note.txt"))
		require.NoError(t, err)
		assert.Len(t, []rune(workflow.Get(s, Extracted)), 5)
	})

	t.Run("no readable file fails", func(t *testing.T) {
		a := New(nodes.Env{Model: llmtest.New().Text("x")}, WithReadFile(readFile))
		_, err := a.Graph().Run(context.Background(), nodes.Seed("", "gone.txt"))
		assert.ErrorIs(t, err, ErrNoContent)
	})

	t.Run("summary failure propagates", func(t *testing.T) {
		a := New(nodes.Env{Model: llmtest.New()}, WithReadFile(readFile))
		_, err := a.Graph().Run(context.Background(), nodes.Seed("", "note.txt"))
		assert.ErrorIs(t, err, llmtest.ErrUnscripted)
	})
}
