// Package pdftest reads back documents written by gofpdf so tests can check
// what each page draws.
package pdftest

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

var (
	objHeader  = regexp.MustCompile(`(\d+) 0 obj\s`)
	lengthKey  = regexp.MustCompile(`/Length (\d+)`)
	kidsKey    = regexp.MustCompile(`/Kids \[([^\]]*)\]`)
	contentKey = regexp.MustCompile(`/Contents (\d+) 0 R`)
	resKey     = regexp.MustCompile(`/Resources (\d+) 0 R`)
	reference  = regexp.MustCompile(`(\d+) 0 R`)
	drawForm   = regexp.MustCompile(`(/[A-Za-z0-9]+) Do`)
)

type object struct {
	dict   string
	stream []byte
}

// Pages returns the decoded content of every page in page order. Form
// XObjects drawn on a page are appended to that page's content, so text
// from imported pages is visible too.
func Pages(raw []byte) ([]string, error) {
	objs, err := objects(raw)
	if err != nil {
		return nil, err
	}
	root, ok := objs[1]
	if !ok {
		return nil, fmt.Errorf("pages root not found")
	}
	kids := kidsKey.FindStringSubmatch(root.dict)
	if kids == nil {
		return nil, fmt.Errorf("pages root has no kids")
	}

	var pages []string
	for _, ref := range reference.FindAllStringSubmatch(kids[1], -1) {
		page, err := lookup(objs, ref[1])
		if err != nil {
			return nil, err
		}
		text, err := pageContent(objs, page)
		if err != nil {
			return nil, err
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func pageContent(objs map[int]object, page object) (string, error) {
	m := contentKey.FindStringSubmatch(page.dict)
	if m == nil {
		return "", fmt.Errorf("page has no content stream")
	}
	content, err := lookup(objs, m[1])
	if err != nil {
		return "", err
	}
	text := string(content.stream)

	var resources string
	if r := resKey.FindStringSubmatch(page.dict); r != nil {
		res, err := lookup(objs, r[1])
		if err != nil {
			return "", err
		}
		resources = res.dict
	}
	for _, name := range drawForm.FindAllStringSubmatch(string(content.stream), -1) {
		entry := regexp.MustCompile(regexp.QuoteMeta(name[1]) + `\s+(\d+) 0 R`).FindStringSubmatch(resources)
		if entry == nil {
			return "", fmt.Errorf("form %s not in page resources", name[1])
		}
		form, err := lookup(objs, entry[1])
		if err != nil {
			return "", err
		}
		text += "\n" + string(form.stream)
	}
	return text, nil
}

func lookup(objs map[int]object, id string) (object, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return object{}, err
	}
	obj, ok := objs[n]
	if !ok {
		return object{}, fmt.Errorf("object %d not found", n)
	}
	return obj, nil
}

// objects indexes every indirect object, skipping over stream data by its
// declared length so binary content is never scanned for headers.
func objects(raw []byte) (map[int]object, error) {
	objs := make(map[int]object)
	pos := 0
	for {
		loc := objHeader.FindSubmatchIndex(raw[pos:])
		if loc == nil {
			return objs, nil
		}
		id, err := strconv.Atoi(string(raw[pos+loc[2] : pos+loc[3]]))
		if err != nil {
			return nil, err
		}
		start := pos + loc[1]
		end := bytes.Index(raw[start:], []byte("endobj"))
		if end < 0 {
			return nil, fmt.Errorf("object %d is not terminated", id)
		}
		at := bytes.Index(raw[start:], []byte("stream"))
		if at < 0 || at > end {
			objs[id] = object{dict: string(raw[start : start+end])}
			pos = start + end
			continue
		}

		dict := raw[start : start+at]
		m := lengthKey.FindSubmatch(dict)
		if m == nil {
			return nil, fmt.Errorf("stream %d has no length", id)
		}
		size, err := strconv.Atoi(string(m[1]))
		if err != nil {
			return nil, err
		}
		data := start + at + len("stream")
		if data < len(raw) && raw[data] == '\r' {
			data++
		}
		if data < len(raw) && raw[data] == '\n' {
			data++
		}
		if data+size > len(raw) {
			return nil, fmt.Errorf("stream %d overruns the document", id)
		}
		stream := raw[data : data+size]
		if bytes.Contains(dict, []byte("/FlateDecode")) {
			stream, err = inflate(stream)
			if err != nil {
				return nil, fmt.Errorf("inflate stream %d: %w", id, err)
			}
		}
		objs[id] = object{dict: string(dict), stream: stream}
		pos = data + size
	}
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
