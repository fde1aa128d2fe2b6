package importer

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements は1段落として扱う要素。
var blockElements = map[atom.Atom]bool{
	atom.P:          true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Pre:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
}

// skipElements は本文として扱わない要素。中身ごと捨てる。
var skipElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Iframe:   true,
}

// extractParagraphs はHTML本文をブロック要素単位の段落テキストに分割する。
// ブロック要素の外にあるテキストは<br>や空行を区切りとして段落にする。
// プレーンテキストの入力は空行区切りで段落にする。
func extractParagraphs(body string) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}

	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return splitPlainText(body)
	}

	var (
		paragraphs []string
		loose      strings.Builder
	)
	flushLoose := func() {
		paragraphs = append(paragraphs, splitPlainText(loose.String())...)
		loose.Reset()
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skipElements[n.DataAtom] {
				return
			}
			if blockElements[n.DataAtom] {
				flushLoose()
				if text := collapseSpace(textContent(n)); text != "" {
					paragraphs = append(paragraphs, text)
				}
				return
			}
			if n.DataAtom == atom.Br {
				loose.WriteString("\n\n")
				return
			}
		case html.TextNode:
			loose.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	flushLoose()

	return paragraphs
}

// textContent はノード配下のテキストを連結する。ネストしたブロックは空白で区切る。
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Br || blockElements[n.DataAtom]) {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func splitPlainText(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(s, "\n\n") {
		if text := collapseSpace(block); text != "" {
			out = append(out, text)
		}
	}
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
