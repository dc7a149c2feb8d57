// Package wikixml extracts pages from MediaWiki XML dumps into the
// heading-markup text files the corpus encoder consumes. Pages are
// streamed one at a time, so dump size does not matter.
package wikixml

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/RasaHQ/semantic-map-embedding/core/errors"
	"github.com/RasaHQ/semantic-map-embedding/internal/scan"
)

// Page is one extracted wiki page.
type Page struct {
	Title string
	Text  string
}

// ExtractPages streams every <page> of the dump to fn, in document order.
// Pages without a title or without revision text are skipped.
func ExtractPages(r io.Reader, fn func(Page) error) error {
	parser, err := xmlquery.CreateStreamParser(r, "//page")
	if err != nil {
		return errors.NewParse("XML", "", err.Error())
	}

	for {
		node, err := parser.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.NewParse("XML", "", err.Error())
		}

		titleNode := xmlquery.FindOne(node, "title")
		textNode := xmlquery.FindOne(node, "revision/text")
		if titleNode == nil || textNode == nil {
			continue
		}
		page := Page{
			Title: strings.TrimSpace(titleNode.InnerText()),
			Text:  textNode.InnerText(),
		}
		if page.Title == "" || strings.TrimSpace(page.Text) == "" {
			continue
		}
		if err := fn(page); err != nil {
			return err
		}
	}
}

// WriteMarkup renders one page in heading markup: the title as a document
// start line, followed by the page text and a trailing blank line.
func WriteMarkup(w io.Writer, page Page) error {
	if _, err := io.WriteString(w, "= "+page.Title+" =\n"); err != nil {
		return err
	}
	text := page.Text
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := io.WriteString(w, text); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ExtractFile converts a dump file (optionally xz or gzip compressed) into
// one markup text file and returns the number of pages written.
func ExtractFile(dumpPath, outPath string) (int, error) {
	in, err := scan.Open(dumpPath)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, errors.NewIO("create", outPath, err)
	}
	w := bufio.NewWriter(out)

	pages := 0
	err = ExtractPages(in, func(page Page) error {
		pages++
		return WriteMarkup(w, page)
	})
	if err != nil {
		out.Close()
		return pages, err
	}

	if err := w.Flush(); err != nil {
		out.Close()
		return pages, errors.NewIO("write", outPath, err)
	}
	if err := out.Close(); err != nil {
		return pages, errors.NewIO("close", outPath, err)
	}
	return pages, nil
}
