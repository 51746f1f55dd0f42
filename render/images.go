package render

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"mdmail/models"
)

// ContentID derives the Content-ID of a local image from its source as
// written in the document: six hex chars of its MD5 and the file name.
// Characters of the file name that are not valid in a msg-id, or that a
// cid: URL would have to percent-encode, are replaced with '-'. The hash
// covers the full source, so the ids stay unique.
func ContentID(src string) string {
	sum := md5.Sum([]byte(src))
	return hex.EncodeToString(sum[:])[:6] + "_" + strings.Map(cidRune, filepath.Base(src))
}

func cidRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	case r == '.', r == '_', r == '-':
		return r
	}
	return '-'
}

// isInlineable reports whether src refers to a local file rather than a
// remote resource or an already embedded one.
func isInlineable(src string) bool {
	lower := strings.ToLower(src)
	switch {
	case src == "":
		return false
	case strings.HasPrefix(lower, "data:"),
		strings.HasPrefix(lower, "cid:"),
		strings.HasPrefix(lower, "http:"),
		strings.HasPrefix(lower, "https:"),
		strings.HasPrefix(lower, "//"):
		return false
	}
	return true
}

// ResolveImages rewrites every <img> whose src names an existing local file
// to cid:<content id> and returns the images in document order. Sources
// whose file does not exist are left alone and reported in skipped; they
// will show as broken images on the receiving side.
//
// The fragment is returned byte for byte when no src was rewritten.
// Otherwise it is re-serialised by the HTML parser, which normalises the
// markup (implied elements such as <tbody> are added, entities decoded).
func ResolveImages(fragment string, basePath string) (string, []models.InlineImage, []string, error) {
	parent := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return "", nil, nil, err
	}

	var (
		images  []models.InlineImage
		skipped []string
		seen    = make(map[string]bool)
		changed bool
	)

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			for i, attr := range n.Attr {
				if attr.Namespace != "" || attr.Key != "src" || !isInlineable(attr.Val) {
					continue
				}

				path := attr.Val
				if !filepath.IsAbs(path) {
					path = filepath.Join(basePath, path)
				}
				if info, err := os.Stat(path); err != nil || info.IsDir() {
					skipped = append(skipped, attr.Val)
					break
				}

				cid := ContentID(attr.Val)
				if !seen[cid] {
					seen[cid] = true
					images = append(images, models.InlineImage{ContentID: cid, Path: path})
				}
				n.Attr[i].Val = "cid:" + cid
				changed = true
				break
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, n := range nodes {
		visit(n)
	}

	if !changed {
		return fragment, images, skipped, nil
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", nil, nil, err
		}
	}
	return buf.String(), images, skipped, nil
}
