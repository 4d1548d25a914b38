package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	imgdl "github.com/anatolykoptev/go-imgdl"
)

// counterPlaceholder is substituted by --increment templating.
const counterPlaceholder = "{i}"

// parseInputFile reads a bulk input file, dispatching on its extension:
// .txt (one URL per line), .csv (optional url,directory,name,extension
// header), or .json (array of URL strings or option objects).
func parseInputFile(path string) ([]imgdl.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &imgdl.ArgumentError{Msg: "cannot open input file", Err: err}
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return parseTXT(f)
	case ".csv":
		return parseCSV(f)
	case ".json":
		return parseJSON(f)
	default:
		return nil, &imgdl.ArgumentError{Msg: fmt.Sprintf("unsupported input file %q, want .txt, .csv, or .json", path)}
	}
}

// parseTXT reads one URL per line. Blank lines and #-comments are skipped.
func parseTXT(r io.Reader) ([]imgdl.Item, error) {
	var items []imgdl.Item
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		items = append(items, imgdl.Item{URL: line})
	}
	if err := sc.Err(); err != nil {
		return nil, &imgdl.ArgumentError{Msg: "reading input file", Err: err}
	}
	return items, nil
}

// csvColumns maps header names to Item fields. Without a header row the
// columns are positional in this order.
var csvColumns = []string{"url", "directory", "name", "extension"}

// parseCSV reads url[,directory[,name[,extension]]] records. A first row
// whose first cell is "url" is treated as a header and may reorder the
// columns.
func parseCSV(r io.Reader) ([]imgdl.Item, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &imgdl.ArgumentError{Msg: "malformed CSV", Err: err}
	}
	if len(records) == 0 {
		return nil, nil
	}

	order := csvColumns
	if strings.EqualFold(strings.TrimSpace(records[0][0]), "url") {
		order = make([]string, len(records[0]))
		for i, h := range records[0] {
			order[i] = strings.ToLower(strings.TrimSpace(h))
		}
		records = records[1:]
	}

	var items []imgdl.Item
	for _, rec := range records {
		var item imgdl.Item
		for i, cell := range rec {
			if i >= len(order) {
				break
			}
			cell = strings.TrimSpace(cell)
			switch order[i] {
			case "url":
				item.URL = cell
			case "directory":
				item.Directory = cell
			case "name":
				item.Name = cell
			case "extension":
				item.Extension = cell
			}
		}
		if item.URL == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// jsonItem mirrors imgdl.Item for object entries in a JSON input file.
type jsonItem struct {
	URL       string `json:"url"`
	Directory string `json:"directory"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
}

// parseJSON reads a JSON array whose entries are URL strings or
// {url, directory, name, extension} objects.
func parseJSON(r io.Reader) ([]imgdl.Item, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &imgdl.ArgumentError{Msg: "malformed JSON, want an array", Err: err}
	}

	items := make([]imgdl.Item, 0, len(raw))
	for _, entry := range raw {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			items = append(items, imgdl.Item{URL: s})
			continue
		}
		var obj jsonItem
		if err := json.Unmarshal(entry, &obj); err != nil {
			return nil, &imgdl.ArgumentError{Msg: "JSON entries must be URL strings or option objects", Err: err}
		}
		if obj.URL == "" {
			return nil, &imgdl.ArgumentError{Msg: "JSON object entry is missing \"url\""}
		}
		items = append(items, imgdl.Item(obj))
	}
	return items, nil
}

// expandTemplate substitutes the {i} placeholder with every counter value
// in [start, end].
func expandTemplate(tmpl string, start, end int) ([]string, error) {
	if !strings.Contains(tmpl, counterPlaceholder) {
		return nil, &imgdl.ArgumentError{Msg: fmt.Sprintf("--increment needs a %s placeholder in %q", counterPlaceholder, tmpl)}
	}
	if start < 0 || end < start {
		return nil, &imgdl.ArgumentError{Msg: fmt.Sprintf("invalid counter range %d..%d", start, end)}
	}
	urls := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		urls = append(urls, strings.ReplaceAll(tmpl, counterPlaceholder, strconv.Itoa(i)))
	}
	return urls, nil
}
