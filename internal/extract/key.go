package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/planproof/planproof/internal/model"
)

// contextKey derives a cache key from everything that shapes the inference
// request for a page. The rendered reference is hashed by content, not by
// path: per-page refs reuse names like page-1.pdf across documents, and work
// dirs change paths between runs for identical content. The path only feeds
// the key when the ref is not a readable file.
func contextKey(pc model.PageContext) string {
	h := sha256.New()
	h.Write([]byte(pc.Ruleset))
	h.Write([]byte{'|'})
	h.Write([]byte(pc.PageType))
	h.Write([]byte{'|'})
	writeRefDigest(h, pc.ImageRef)
	h.Write([]byte{'|'})
	h.Write([]byte(pc.ExtractedText))
	for _, rule := range pc.Rules {
		h.Write([]byte{'|'})
		h.Write([]byte(rule.Code))
	}
	return "planproof:v1:" + hex.EncodeToString(h.Sum(nil))
}

func writeRefDigest(h io.Writer, ref string) {
	f, err := os.Open(ref)
	if err != nil {
		h.Write([]byte(ref))
		return
	}
	defer f.Close()

	content := sha256.New()
	if _, err := io.Copy(content, f); err != nil {
		h.Write([]byte(ref))
		return
	}
	h.Write(content.Sum(nil))
}
